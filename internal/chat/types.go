package chat

import "github.com/HVQuoc/Tessenger/internal/auth"

// InboundEvent is the wire shape a client sends over the connection.
type InboundEvent struct {
	Message InboundMessage `json:"message"`
}

// InboundMessage carries the recipient and text of one outgoing message.
type InboundMessage struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// DeliveryEvent is pushed to the recipient's live connections after a message
// has been persisted.
type DeliveryEvent struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

// PresenceEvent carries the deduplicated set of online users. It is pushed to
// every live connection whenever registry membership changes.
type PresenceEvent struct {
	Online []auth.Identity `json:"online"`
}
