// Package message provides durable direct-message persistence and history.
package message

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HVQuoc/Tessenger/internal/db"
)

// Service persists and reads direct messages in PostgreSQL.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a message store service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "message")),
	}
}

// Create appends one message with a server-assigned id and timestamp.
func (s *Service) Create(ctx context.Context, senderID, recipientID, text string) (Message, error) {
	pgSender, err := db.ParseUUID(senderID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid sender id: %w", err)
	}
	pgRecipient, err := db.ParseUUID(recipientID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid recipient id: %w", err)
	}

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO messages (sender_id, recipient_id, text) VALUES ($1, $2, $3) RETURNING id, created_at`,
		pgSender, pgRecipient, text,
	).Scan(&id, &createdAt)
	if err != nil {
		return Message{}, fmt.Errorf("persist message: %w", err)
	}

	return Message{
		ID:          db.UUIDString(id),
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		CreatedAt:   db.TimeFromPg(createdAt),
	}, nil
}

// Conversation returns all messages exchanged between two users, in either
// direction, ascending by creation time.
func (s *Service) Conversation(ctx context.Context, userA, userB string) ([]Message, error) {
	pgA, err := db.ParseUUID(userA)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	pgB, err := db.ParseUUID(userB)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, recipient_id, text, created_at
		   FROM messages
		  WHERE (sender_id = $1 AND recipient_id = $2)
		     OR (sender_id = $2 AND recipient_id = $1)
		  ORDER BY created_at ASC`,
		pgA, pgB,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		var (
			id, sender, recipient pgtype.UUID
			text                  string
			createdAt             pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &sender, &recipient, &text, &createdAt); err != nil {
			return nil, err
		}
		items = append(items, Message{
			ID:          db.UUIDString(id),
			SenderID:    db.UUIDString(sender),
			RecipientID: db.UUIDString(recipient),
			Text:        text,
			CreatedAt:   db.TimeFromPg(createdAt),
		})
	}
	return items, rows.Err()
}
