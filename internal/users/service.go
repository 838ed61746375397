// Package users provides the user directory and credential management.
package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/HVQuoc/Tessenger/internal/db"
)

// Errors returned by user operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
)

// Service manages user records in PostgreSQL. Only salted bcrypt hashes are
// stored, never plaintext passwords.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a user directory service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "users")),
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, errors.New("username is required")
	}
	if strings.TrimSpace(password) == "" {
		return User{}, errors.New("password is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		username, string(hashed),
	).Scan(&id, &createdAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}

	s.logger.Info("user registered", slog.String("username", username))
	return User{
		ID:        db.UUIDString(id),
		Username:  username,
		CreatedAt: db.TimeFromPg(createdAt),
	}, nil
}

// Login authenticates by username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return User{}, ErrInvalidCredentials
	}

	var (
		id           pgtype.UUID
		passwordHash string
		createdAt    pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&id, &passwordHash, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return User{
		ID:        db.UUIDString(id),
		Username:  username,
		CreatedAt: db.TimeFromPg(createdAt),
	}, nil
}

// List returns all users with id and username only.
func (s *Service) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, username FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var id pgtype.UUID
		var username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, err
		}
		items = append(items, User{ID: db.UUIDString(id), Username: username})
	}
	return items, rows.Err()
}
