package message

import "time"

// Message is one persisted direct message. Immutable after creation; the id
// and timestamp are assigned by the server on insert.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender"`
	RecipientID string    `json:"recipient"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}
