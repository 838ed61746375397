package db

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/HVQuoc/Tessenger/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "chat",
		Password: "pw",
		Database: "tessenger",
		SSLMode:  "require",
	}
	got := DSN(cfg)
	want := "postgres://chat:pw@db.internal:5433/tessenger?sslmode=require"
	if got != want {
		t.Errorf("DSN = %s, want %s", got, want)
	}
}

func TestParseUUIDRoundTrip(t *testing.T) {
	const id = "7a9c2f9e-2f33-4c57-9a43-0d6f4f6f3a21"
	pgID, err := ParseUUID(" " + id + " ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := UUIDString(pgID); got != id {
		t.Errorf("round trip = %s, want %s", got, id)
	}
}

func TestParseUUIDInvalid(t *testing.T) {
	if _, err := ParseUUID("not-a-uuid"); err == nil {
		t.Fatal("expected error for invalid UUID")
	}
	if UUIDString(pgtype.UUID{}) != "" {
		t.Error("expected empty string for invalid pg UUID")
	}
}

func TestTimeFromPg(t *testing.T) {
	now := time.Now()
	if got := TimeFromPg(pgtype.Timestamptz{Time: now, Valid: true}); !got.Equal(now) {
		t.Errorf("expected %s, got %s", now, got)
	}
	if got := TimeFromPg(pgtype.Timestamptz{}); !got.IsZero() {
		t.Errorf("expected zero time, got %s", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Error("plain error is not a unique violation")
	}
}
