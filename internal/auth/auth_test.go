package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	want := Identity{UserID: "u-1", Username: "alice"}
	token, expiresAt, err := GenerateToken(want, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected expiry in the future, got %s", expiresAt)
	}

	got, err := VerifyToken(token, testSecret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Errorf("identity = %+v, want %+v", got, want)
	}
}

func TestVerifyTokenEmpty(t *testing.T) {
	t.Parallel()

	if _, err := VerifyToken("", testSecret); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
	if _, err := VerifyToken("   ", testSecret); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken for blank token, got %v", err)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := GenerateToken(Identity{UserID: "u-1", Username: "alice"}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyToken(token, "other-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	t.Parallel()

	if _, err := VerifyToken("not.a.jwt", testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	t.Parallel()

	token, _, err := GenerateToken(Identity{UserID: "u-1", Username: "alice"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyToken(token, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenFromCookieHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"single", "token=abc123", "abc123"},
		{"among others", "theme=dark; token=abc123; lang=en", "abc123"},
		{"spacing", " token = not-this ; token=right", "right"},
		{"absent", "session=xyz", ""},
		{"empty header", "", ""},
		{"empty value", "token=", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenFromCookieHeader(tt.raw); got != tt.want {
				t.Errorf("TokenFromCookieHeader(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
