package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apperrors "github.com/shoplite/storefront-backend/internal/errors"
	"github.com/shoplite/storefront-backend/internal/middleware"
	ws "github.com/shoplite/storefront-backend/internal/websocket"
)

type CatalogEventsController struct {
	hub            *ws.Hub
	allowedOrigins map[string]bool
}

func NewCatalogEventsController(hub *ws.Hub, allowedOrigins []string) *CatalogEventsController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}
	return &CatalogEventsController{
		hub:            hub,
		allowedOrigins: origins,
	}
}

func (ctrl *CatalogEventsController) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return ctrl.allowedOrigins[r.Header.Get("Origin")]
		},
	}
}

// Subscribe upgrades the connection and streams catalog change events
// GET /api/v1/catalog/events
// The token arrives as a query parameter; never log it.
func (ctrl *CatalogEventsController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	// Auth middleware has already validated the token
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	upgrader := ctrl.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, nil)
		return
	}

	client := &ws.Client{
		Hub:    ctrl.hub,
		Conn:   &ws.Conn{Conn: conn},
		UserID: userID,
		Send:   make(chan []byte, 256),
	}

	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("Catalog events subscription established", map[string]interface{}{
		"user_id": userID,
	})
}
