package core

import "time"

// Message is the domain model for a direct chat message.
type Message struct {
	ID         int64
	SenderID   string
	ReceiverID string
	Text       string
	CreatedAt  time.Time
}
