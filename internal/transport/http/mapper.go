package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/service/messages"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

func userResponse(u *store.User, online bool) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Online:   online,
	}
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// decodeMsg validates an inbound msg frame.
func decodeMsg(inbound proto.Inbound) (*proto.MsgData, *proto.Error, error) {
	var msg proto.MsgData
	if err := json.Unmarshal(inbound.Data, &msg); err != nil {
		return nil, nil, err
	}
	if msg.To == "" {
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "recipient is required"}, nil
	}
	return &msg, nil, nil
}

// sendErrorToProto maps a message service error to an HTTP status and protocol error.
func sendErrorToProto(err error) (int, *proto.Error) {
	switch {
	case errors.Is(err, messages.ErrEmptyText),
		errors.Is(err, messages.ErrTextTooLong),
		errors.Is(err, messages.ErrMessageSelf):
		return http.StatusBadRequest, &proto.Error{Code: core.ErrCodeBadRequest, Msg: err.Error()}
	case errors.Is(err, messages.ErrUserNotFound):
		return http.StatusNotFound, &proto.Error{Code: core.ErrCodeNotFound, Msg: err.Error()}
	default:
		return http.StatusInternalServerError, &proto.Error{Code: core.ErrCodeInternal, Msg: "internal server error"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventPresence:
		online := event.Online
		if online == nil {
			online = []string{}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPresenceUpdate,
			Data:  proto.EventPresence{Online: online},
		}
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data: proto.EventMessage{
				ID:         event.Message.ID,
				SenderID:   event.Message.SenderID,
				ReceiverID: event.Message.ReceiverID,
				Text:       event.Message.Text,
				TS:         event.Message.CreatedAt.Unix(),
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
