package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HVQuoc/Tessenger/internal/users"
)

// PeopleHandler lists every registered user (id and username only) so the
// client can render the contact list alongside the presence snapshot.
type PeopleHandler struct {
	userService *users.Service
	logger      *slog.Logger
}

// NewPeopleHandler creates a people handler.
func NewPeopleHandler(log *slog.Logger, userService *users.Service) *PeopleHandler {
	return &PeopleHandler{
		userService: userService,
		logger:      log.With(slog.String("handler", "people")),
	}
}

// Register mounts GET /people on the Echo instance.
func (h *PeopleHandler) Register(e *echo.Echo) {
	e.GET("/people", h.List)
}

// List returns all users as [{userId, username}].
func (h *PeopleHandler) List(c echo.Context) error {
	if h.userService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "user service not configured")
	}
	items, err := h.userService.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
