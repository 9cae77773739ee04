package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventPresence carries the full online set to every live connection.
	EventPresence EventKind = iota
	// EventMessage delivers a direct message to its recipient's live connection.
	EventMessage
	// EventError notifies a client about a domain error.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventPresence:
		return "presence-update"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Online  []string // For EventPresence
	Message Message  // For EventMessage
	Error   *CoreError
}

// PresenceEvent builds a presence update for the given online set.
func PresenceEvent(online []string) *Event {
	return &Event{Kind: EventPresence, Online: online}
}

// MessageEvent builds a message push.
func MessageEvent(msg Message) *Event {
	return &Event{Kind: EventMessage, Message: msg}
}

// ErrorEvent builds an error notification.
func ErrorEvent(code, msg string) *Event {
	return &Event{Kind: EventError, Error: coreError(code, msg)}
}
