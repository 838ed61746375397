// Package handlers provides the HTTP API handlers for the Tessenger server.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HVQuoc/Tessenger/internal/auth"
	"github.com/HVQuoc/Tessenger/internal/users"
)

// AuthHandler serves register, login, logout, and profile, issuing the JWT
// carried in the token cookie.
type AuthHandler struct {
	userService *users.Service
	jwtSecret   string
	expiresIn   time.Duration
	logger      *slog.Logger
}

// AuthResponse is the success body for register and login.
type AuthResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// NewAuthHandler creates an auth handler with the user directory and JWT config.
func NewAuthHandler(log *slog.Logger, userService *users.Service, jwtSecret string, expiresIn time.Duration) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtSecret:   jwtSecret,
		expiresIn:   expiresIn,
		logger:      log.With(slog.String("handler", "auth")),
	}
}

// Register mounts the auth routes on the Echo instance.
func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/register", h.RegisterUser)
	e.POST("/login", h.Login)
	e.POST("/logout", h.Logout)
	e.GET("/profile", h.Profile)
}

// RegisterUser creates a user and signs them in immediately: the response
// sets the token cookie so the client needs no follow-up login call.
func (h *AuthHandler) RegisterUser(c echo.Context) error {
	req, err := h.bindCredentials(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.issueCookie(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, AuthResponse{ID: user.ID, Username: user.Username})
}

// Login validates credentials and sets the token cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	req, err := h.bindCredentials(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.issueCookie(c, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AuthResponse{ID: user.ID, Username: user.Username})
}

// Logout clears the token cookie. There is no server-side session to revoke.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Profile returns the identity carried by the verified token.
func (h *AuthHandler) Profile(c echo.Context) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: no token")
	}
	return c.JSON(http.StatusOK, identity)
}

func (h *AuthHandler) bindCredentials(c echo.Context) (users.RegisterRequest, error) {
	if h.userService == nil {
		return users.RegisterRequest{}, echo.NewHTTPError(http.StatusInternalServerError, "user service not configured")
	}
	if strings.TrimSpace(h.jwtSecret) == "" {
		return users.RegisterRequest{}, echo.NewHTTPError(http.StatusInternalServerError, "jwt secret not configured")
	}

	var req users.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return users.RegisterRequest{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || strings.TrimSpace(req.Password) == "" {
		return users.RegisterRequest{}, echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}
	return req, nil
}

func (h *AuthHandler) issueCookie(c echo.Context, user users.User) error {
	token, expiresAt, err := auth.GenerateToken(auth.Identity{UserID: user.ID, Username: user.Username}, h.jwtSecret, h.expiresIn)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
