package handlers

import (
	"net/http"
	"time"

	"chefly/middleware"
	"chefly/services/realtime"
	"chefly/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsReadLimit = 1024
	wsPongWait  = 60 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot spoof cookies cross-origin on websockets we auth by
	// token, so the origin check stays permissive.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebsocketHandler upgrades the request and parks the connection in the hub
// until the client goes away. Clients never send application messages; the
// read loop exists to service close frames and pongs.
type WebsocketHandler struct {
	Hub *realtime.Hub
}

func NewWebsocketHandler(hub *realtime.Hub) *WebsocketHandler {
	return &WebsocketHandler{Hub: hub}
}

func (h *WebsocketHandler) Handle(c *gin.Context) {
	token := middleware.TokenFromRequest(c)
	if token == "" {
		utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "missing bearer token")
		return
	}

	userID, err := utils.ExtractIDFromToken(token)
	if err != nil || userID == "" {
		utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "invalid token")
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("ws upgrade failed",
			zap.String("userId", userID), zap.Error(err))
		return
	}

	connection := h.Hub.Add(userID, conn)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		connection.Touch()
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go func() {
		defer h.Hub.Remove(connection)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			connection.Touch()
		}
	}()
}
