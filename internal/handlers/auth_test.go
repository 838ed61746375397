package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HVQuoc/Tessenger/internal/auth"
)

const testSecret = "test-secret"

func newAuthTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(auth.JWTMiddleware(testSecret, func(c echo.Context) bool {
		return c.Request().URL.Path == "/logout"
	}))
	h := NewAuthHandler(slog.Default(), nil, testSecret, time.Hour)
	h.Register(e)
	return e
}

func TestProfileReturnsTokenIdentity(t *testing.T) {
	t.Parallel()

	e := newAuthTestServer(t)
	token, _, err := auth.GenerateToken(auth.Identity{UserID: "u1", Username: "alice"}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"userId":"u1"`) || !strings.Contains(body, `"username":"alice"`) {
		t.Errorf("unexpected profile body: %s", body)
	}
}

func TestProfileWithoutTokenUnauthorized(t *testing.T) {
	t.Parallel()

	e := newAuthTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProfileWithInvalidTokenUnauthorized(t *testing.T) {
	t.Parallel()

	e := newAuthTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	t.Parallel()

	e := newAuthTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cleared := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.CookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected token cookie to be cleared")
	}
}
