package core

import (
	"sync"

	"github.com/google/uuid"
)

// Identity is the verified user a connection is bound to.
type Identity struct {
	UserID   string
	Username string
}

// Conn is a live transport session bound to one identity.
// Push must not block; a failed push reports ErrConnClosed or ErrSlowConsumer.
type Conn interface {
	ID() string
	UserID() string
	Push(ev *Event) error
	Close()
}

// Client is a websocket-backed connection handle as seen by the core layer.
// Messages are queued in a bounded buffer. Presence updates replace each other in a
// single-slot mailbox so a slow reader still ends up with the latest online set.
type Client struct {
	id       string
	identity Identity

	mu       sync.Mutex
	closed   bool
	events   chan *Event
	presence chan *Event
	done     chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(identity Identity, buffer int) *Client {
	if buffer <= 0 {
		buffer = 16
	}
	if identity.Username == "" {
		identity.Username = identity.UserID
	}
	return &Client{
		id:       uuid.NewString(),
		identity: identity,
		events:   make(chan *Event, buffer),
		presence: make(chan *Event, 1),
		done:     make(chan struct{}),
	}
}

// ID returns the connection id, unique per handshake.
func (c *Client) ID() string { return c.id }

// UserID returns the owning identity's user id.
func (c *Client) UserID() string { return c.identity.UserID }

// Identity returns the identity the client was admitted with.
func (c *Client) Identity() Identity { return c.identity }

// Push hands an event to the client's outbound queues without blocking.
func (c *Client) Push(ev *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}

	if ev.Kind == EventPresence {
		select {
		case <-c.presence:
		default:
		}
		c.presence <- ev
		return nil
	}

	select {
	case c.events <- ev:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close marks the client dead. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Events yields queued message and error events.
func (c *Client) Events() <-chan *Event { return c.events }

// Presence yields the most recent pending presence update.
func (c *Client) Presence() <-chan *Event { return c.presence }

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} { return c.done }
