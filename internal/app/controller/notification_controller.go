package controller

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/threemeal/threemeal-backend/internal/middleware"
	ws "github.com/threemeal/threemeal-backend/internal/websocket"
)

type NotificationController struct {
	hub      *ws.Hub
	upgrader *gorillaws.Upgrader
}

func NewNotificationController(hub *ws.Hub, allowedOrigins []string) *NotificationController {
	return &NotificationController{
		hub:      hub,
		upgrader: ws.Upgrader(allowedOrigins),
	}
}

// Connect upgrades to a websocket that streams order notifications
// GET /api/v1/ws/notifications?token=
func (ctrl *NotificationController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, conn, p.UserID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": p.UserID,
	})
}
