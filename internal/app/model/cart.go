package model

import (
	"time"
)

// CartItem rows are hard-deleted: the unique (user_id, product_id) index
// backs the quantity upsert in the cart repository, and a soft-delete marker
// would make removed rows collide with re-added ones.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_cart_items_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_cart_items_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
