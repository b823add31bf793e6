package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shoplite/storefront-backend/internal/app/model"
	"github.com/shoplite/storefront-backend/internal/app/repository"
	"github.com/shoplite/storefront-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

// ProductValidationError carries per-field messages so the admin form can
// highlight exactly what to fix.
type ProductValidationError struct {
	Fields map[string]string
}

func (e *ProductValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "product validation failed: " + strings.Join(parts, "; ")
}

// ProductUpdates holds the fields of a partial product update. Nil pointers
// leave the stored value untouched.
type ProductUpdates struct {
	Name          *string
	Description   *string
	Price         *float64
	ImageURL      *string
	StockQuantity *int
}

// CatalogNotifier receives catalog change notifications after successful
// mutations. A nil notifier disables them.
type CatalogNotifier interface {
	ProductCreated(product *model.Product)
	ProductUpdated(product *model.Product)
	ProductDeleted(productID uint)
}

type ProductService interface {
	ListProducts(filter repository.ProductFilter) ([]model.Product, error)
	GetProductByID(id uint) (*model.Product, error)
	CreateProduct(product *model.Product) error
	UpdateProduct(id uint, updates ProductUpdates) (*model.Product, error)
	DeleteProduct(id uint) error
	ExportProducts() ([]byte, error)
}

type productService struct {
	productRepo repository.ProductRepository
	notifier    CatalogNotifier
}

func NewProductService(productRepo repository.ProductRepository, notifier CatalogNotifier) ProductService {
	return &productService{
		productRepo: productRepo,
		notifier:    notifier,
	}
}

func (s *productService) ListProducts(filter repository.ProductFilter) ([]model.Product, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"search":  filter.Search,
		"sort_by": filter.SortBy,
	})

	products, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list products", err, nil)
		return nil, err
	}

	logger.Info("Products listed successfully", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	logger.Debug("Fetching product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return product, nil
}

func (s *productService) CreateProduct(product *model.Product) error {
	logger.Info("Creating product", map[string]interface{}{
		"name":  product.Name,
		"price": product.Price,
	})

	if err := validateProduct(product); err != nil {
		logger.Warn("Product validation failed", map[string]interface{}{
			"name":  product.Name,
			"error": err.Error(),
		})
		return err
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})

	if s.notifier != nil {
		s.notifier.ProductCreated(product)
	}
	return nil
}

func (s *productService) UpdateProduct(id uint, updates ProductUpdates) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot update product: not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for update", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	if updates.Name != nil {
		product.Name = *updates.Name
	}
	if updates.Description != nil {
		product.Description = *updates.Description
	}
	if updates.Price != nil {
		product.Price = *updates.Price
	}
	if updates.ImageURL != nil {
		product.ImageURL = *updates.ImageURL
	}
	if updates.StockQuantity != nil {
		product.StockQuantity = *updates.StockQuantity
	}

	if err := validateProduct(product); err != nil {
		logger.Warn("Product validation failed", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product updated successfully", map[string]interface{}{
		"product_id": id,
	})

	if s.notifier != nil {
		s.notifier.ProductUpdated(product)
	}
	return product, nil
}

// DeleteProduct hard-deletes the product. Cart rows referencing it are left
// in place: cart reads skip them and the sweep scheduler reclaims them.
func (s *productService) DeleteProduct(id uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": id,
	})

	_, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot delete product: not found", map[string]interface{}{
				"product_id": id,
			})
			return ErrProductNotFound
		}
		logger.Error("Failed to fetch product for deletion", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	if err := s.productRepo.Delete(id); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}

	logger.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})

	if s.notifier != nil {
		s.notifier.ProductDeleted(id)
	}
	return nil
}

var exportHeaders = []string{"ID", "Name", "Description", "Price", "Image URL", "Stock Quantity", "Created At"}

// ExportProducts renders the full catalog as an xlsx workbook.
func (s *productService) ExportProducts() ([]byte, error) {
	logger.Info("Exporting products to spreadsheet", nil)

	products, err := s.productRepo.FindAll()
	if err != nil {
		logger.Error("Failed to fetch products for export", err, nil)
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Products"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, product := range products {
		values := []interface{}{
			product.ID,
			product.Name,
			product.Description,
			product.Price,
			product.ImageURL,
			product.StockQuantity,
			product.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to write product export workbook", err, nil)
		return nil, err
	}

	logger.Info("Products exported successfully", map[string]interface{}{
		"count": len(products),
	})
	return buf.Bytes(), nil
}

func validateProduct(product *model.Product) error {
	fields := map[string]string{}

	if strings.TrimSpace(product.Name) == "" {
		fields["name"] = "name is required"
	}
	if product.Price < 0 {
		fields["price"] = "price must not be negative"
	}
	if product.StockQuantity < 0 {
		fields["stock_quantity"] = "stock quantity must not be negative"
	}

	if len(fields) > 0 {
		return &ProductValidationError{Fields: fields}
	}
	return nil
}
