package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	ProtocolVersion = 1

	InboundTypeMsg  = "msg"
	InboundTypePing = "ping"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
	OutboundTypePong  = "pong"
	OutboundTypeAck   = "ack"

	EventPresenceUpdate = "presence-update"
	EventNewMessage     = "message"
)

// MsgData is a direct message from the client.
type MsgData struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventPresence carries the full current online set.
type EventPresence struct {
	Online []string `json:"online"`
}

// EventMessage is a direct message pushed to its recipient.
type EventMessage struct {
	ID         int64  `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
	TS         int64  `json:"ts"`
}

// Ack confirms an inbound message was persisted.
type Ack struct {
	ID        int64 `json:"id"`
	Delivered bool  `json:"delivered"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
