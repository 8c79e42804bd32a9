package httpserver

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// profileLookupTimeout bounds the handshake profile fetch.
const profileLookupTimeout = 5 * time.Second

// HandleWebSocket authenticates the handshake, registers the connection and
// pumps inbound frames into the relay. Authentication failures close the
// connection with a policy-violation close frame.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	token := c.Query("token")
	if token == "" {
		h.closeUnauthorized(c, "Authentication required")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		h.closeUnauthorized(c, "Authentication failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), profileLookupTimeout)
	profile, err := h.profiles.GetProfileByID(ctx, claims.UserID)
	cancel()
	if err != nil {
		h.logger.Warn("WebSocket handshake profile lookup failed", "userID", claims.UserID, "error", err)
		h.closeUnauthorized(c, "User not found")
		return
	}

	h.chat.HandleConnect(profile, c)
	defer h.chat.HandleDisconnect(profile.ID, c)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket read error", "userID", profile.ID, "error", err)
			}
			return
		}
		h.chat.HandleFrame(context.Background(), profile, data)
	}
}

// closeUnauthorized rejects the connection with close code 1008.
func (h *Handlers) closeUnauthorized(c *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	deadline := time.Now().Add(time.Second)
	if err := c.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		h.logger.Debug("Failed to write close frame", "error", err)
	}
	_ = c.Close()
}
