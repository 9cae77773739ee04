package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// Common errors for message operations.
var (
	ErrEmptyText     = errors.New("message text is required")
	ErrTextTooLong   = errors.New("message text is too long")
	ErrMessageSelf   = errors.New("cannot send a message to yourself")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

const defaultHistoryLimit = 50

// Router pushes a persisted message to its recipient's live connection.
type Router interface {
	Route(ctx context.Context, recipientID string, msg core.Message) core.Outcome
}

// Config bounds message operations.
type Config struct {
	MaxTextBytes int
	HistoryLimit int
}

// Service persists direct messages and hands them to the live router.
type Service struct {
	store  store.Store
	router Router
	cfg    Config
	log    *zerolog.Logger
}

// New creates a new message service.
func New(st store.Store, router Router, cfg Config, logger *zerolog.Logger) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &Service{store: st, router: router, cfg: cfg, log: logger}
}

// Send validates and persists a message, then attempts live delivery.
// A failed or skipped live push never fails the call.
func (s *Service) Send(ctx context.Context, senderID, receiverID, text string) (*store.Message, core.Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, core.NotConnected, ErrEmptyText
	}
	if s.cfg.MaxTextBytes > 0 && len(text) > s.cfg.MaxTextBytes {
		return nil, core.NotConnected, ErrTextTooLong
	}
	if senderID == receiverID {
		return nil, core.NotConnected, ErrMessageSelf
	}

	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, core.NotConnected, ErrUserNotFound
		}
		return nil, core.NotConnected, fmt.Errorf("get receiver: %w", err)
	}

	msg := &store.Message{SenderID: senderID, ReceiverID: receiverID, Text: text}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, core.NotConnected, fmt.Errorf("save message: %w", err)
	}

	outcome := s.router.Route(ctx, receiverID, ToCore(msg))
	s.log.Debug().
		Int64("message_id", msg.ID).
		Str("sender_id", senderID).
		Str("receiver_id", receiverID).
		Stringer("outcome", outcome).
		Msg("message sent")

	return msg, outcome, nil
}

// History returns the conversation between userID and otherID, oldest first.
func (s *Service) History(ctx context.Context, userID, otherID string, beforeID *int64) ([]*store.Message, error) {
	if beforeID != nil && *beforeID <= 0 {
		return nil, ErrInvalidCursor
	}
	msgs, err := s.store.ListConversation(ctx, userID, otherID, s.cfg.HistoryLimit, beforeID)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return msgs, nil
}

// Contacts lists every user except userID.
func (s *Service) Contacts(ctx context.Context, userID string) ([]*store.User, error) {
	users, err := s.store.ListUsersExcept(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return users, nil
}

// Chats lists users userID has exchanged messages with.
func (s *Service) Chats(ctx context.Context, userID string) ([]*store.User, error) {
	users, err := s.store.ListChatPartners(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat partners: %w", err)
	}
	return users, nil
}

// ToCore converts a persisted message to its core form.
func ToCore(msg *store.Message) core.Message {
	return core.Message{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		CreatedAt:  msg.CreatedAt,
	}
}
