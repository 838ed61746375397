package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/HVQuoc/Tessenger/internal/message"
)

// MessageStore is the durable append-only history the router persists into
// before attempting delivery.
type MessageStore interface {
	Create(ctx context.Context, senderID, recipientID, text string) (message.Message, error)
}

// Router validates inbound payloads, persists them, and delivers to the
// recipient's live connections.
type Router struct {
	registry *Registry
	store    MessageStore
	logger   *slog.Logger
}

// NewRouter creates a message router over the registry and store.
func NewRouter(log *slog.Logger, registry *Registry, store MessageStore) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		registry: registry,
		store:    store,
		logger:   log.With(slog.String("component", "router")),
	}
}

// Route handles one inbound payload from sender. Payloads that do not parse
// or lack a recipient or text are dropped without a client-visible error.
//
// Valid messages are persisted before any delivery is attempted; a store
// failure fails the route and no push happens. Delivery fans out to each of
// the recipient's live connections independently, and a failed push is
// logged, not returned. If the recipient is offline the message stays in the
// store for history retrieval only.
func (r *Router) Route(ctx context.Context, sender *Conn, payload []byte) error {
	var event InboundEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		r.logger.Debug("dropping unparseable payload",
			slog.String("conn_id", sender.ID()),
			slog.Any("error", err),
		)
		return nil
	}
	recipient := event.Message.Recipient
	text := event.Message.Text
	if recipient == "" || text == "" {
		r.logger.Debug("dropping incomplete message",
			slog.String("conn_id", sender.ID()),
			slog.Bool("has_recipient", recipient != ""),
			slog.Bool("has_text", text != ""),
		)
		return nil
	}

	msg, err := r.store.Create(ctx, sender.Identity().UserID, recipient, text)
	if err != nil {
		return fmt.Errorf("route message: %w", err)
	}

	out, err := json.Marshal(DeliveryEvent{
		ID:        msg.ID,
		Text:      msg.Text,
		Sender:    msg.SenderID,
		Recipient: msg.RecipientID,
	})
	if err != nil {
		return fmt.Errorf("marshal delivery event: %w", err)
	}
	for _, c := range r.registry.Find(recipient) {
		if err := c.TrySend(out); err != nil {
			r.logger.Warn("delivery push skipped",
				slog.String("conn_id", c.ID()),
				slog.String("recipient", recipient),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
