package handlers

import (
	"net/http"

	"medislot/services/notification"
	"medislot/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WebsocketHandler struct {
	Hub *notification.Hub
}

func NewWebsocketHandler(hub *notification.Hub) *WebsocketHandler {
	return &WebsocketHandler{Hub: hub}
}

// ServeWS upgrades the request and subscribes the connection to the caller's events.
func (h *WebsocketHandler) ServeWS(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("Websocket upgrade failed", zap.String("userID", userID), zap.Error(err))
		return
	}
	h.Hub.Serve(ws, userID)
}
