package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HVQuoc/Tessenger/internal/auth"
	"github.com/HVQuoc/Tessenger/internal/message"
)

// HistoryHandler serves conversation history between the authenticated user
// and another user.
type HistoryHandler struct {
	messageService *message.Service
	logger         *slog.Logger
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(log *slog.Logger, messageService *message.Service) *HistoryHandler {
	return &HistoryHandler{
		messageService: messageService,
		logger:         log.With(slog.String("handler", "history")),
	}
}

// Register mounts GET /messages/:userId on the Echo instance.
func (h *HistoryHandler) Register(e *echo.Echo) {
	e.GET("/messages/:userId", h.Conversation)
}

// Conversation returns all messages between the authenticated user and
// :userId, in either direction, ascending by creation time.
func (h *HistoryHandler) Conversation(c echo.Context) error {
	if h.messageService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "message service not configured")
	}
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: no token")
	}
	otherID := c.Param("userId")
	if otherID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	items, err := h.messageService.Conversation(c.Request().Context(), identity.UserID, otherID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
