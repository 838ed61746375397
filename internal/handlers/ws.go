package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/HVQuoc/Tessenger/internal/auth"
	"github.com/HVQuoc/Tessenger/internal/chat"
)

// ChatHandler upgrades /ws to a WebSocket and hands the verified connection
// to the chat engine.
type ChatHandler struct {
	chatService  *chat.Service
	jwtSecret    string
	clientOrigin string
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

// NewChatHandler creates the WebSocket handler. Handshakes are verified with
// the same token logic as plain requests: the token cookie parsed from the
// raw Cookie header.
func NewChatHandler(log *slog.Logger, chatService *chat.Service, jwtSecret, clientOrigin string) *ChatHandler {
	h := &ChatHandler{
		chatService:  chatService,
		jwtSecret:    jwtSecret,
		clientOrigin: clientOrigin,
		logger:       log.With(slog.String("handler", "ws")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Register mounts GET /ws on the Echo instance.
func (h *ChatHandler) Register(e *echo.Echo) {
	e.GET("/ws", h.Connect)
}

// Connect verifies the handshake token, upgrades the connection, and blocks
// until it is gone.
func (h *ChatHandler) Connect(c echo.Context) error {
	token := auth.TokenFromCookieHeader(c.Request().Header.Get("Cookie"))
	identity, err := auth.VerifyToken(token, h.jwtSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: no token")
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake error response.
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return nil
	}

	h.chatService.HandleConnection(c.Request().Context(), ws, identity)
	return nil
}

func (h *ChatHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.clientOrigin == "" {
		return true
	}
	return origin == h.clientOrigin
}
