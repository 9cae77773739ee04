package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("already exists")
)

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted direct message.
type Message struct {
	ID         int64
	SenderID   string
	ReceiverID string
	Text       string
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsersExcept lists every user except the given one, ordered by username.
	ListUsersExcept(ctx context.Context, id string) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListConversation retrieves messages exchanged between two users, oldest first.
	// If beforeID is provided, only messages older than that ID are returned.
	ListConversation(ctx context.Context, userID, otherID string, limit int, beforeID *int64) ([]*Message, error)

	// ListChatPartners lists users the given user has exchanged messages with.
	ListChatPartners(ctx context.Context, userID string) ([]*User, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
