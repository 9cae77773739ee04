package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/service/messages"
)

var errClientClosed = errors.New("client closed by server")

// WSHandler authenticates websocket handshakes and bridges them to core.Client.
type WSHandler struct {
	hub      *core.Hub
	messages *messages.Service
	cfg      *config.Config
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, msgService *messages.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, messages: msgService, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	// Authenticate before upgrading so a rejected peer never holds a socket or a slot.
	credential, _ := credentialFromRequest(r, h.cfg.CookieName, true)
	client, err := h.hub.Admit(r.Context(), credential)
	if err != nil {
		h.log.Info().Err(err).Str("remote", r.RemoteAddr).Msg("ws handshake rejected")
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.cfg.AllowedOrigins,
		InsecureSkipVerify: len(h.cfg.AllowedOrigins) == 0,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		client.Close()
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	logger := h.log.With().Str("client_id", client.ID()).Str("user_id", client.UserID()).Logger()

	if err := h.hub.Connect(client); err != nil {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.Disconnect(client)
	defer client.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, &logger)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, &logger)
	}()

	err = <-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, errClientClosed):
		status = websocket.StatusGoingAway
		reason = "session closed"
	case err != nil && !errors.Is(err, context.Canceled):
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	// Close before cancelling: a cancelled read tears the socket down without a close frame.
	_ = conn.Close(status, reason)
	cancel()
	<-errCh
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, logger *zerolog.Logger) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerMinute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			logger.Debug().Err(err).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			if err := writeError(ctx, conn, core.ErrCodeRateLimited, "too many messages"); err != nil {
				return err
			}
			continue
		}

		switch inbound.Type {
		case proto.InboundTypePing:
			if err := wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypePong}); err != nil {
				return err
			}
		case proto.InboundTypeMsg:
			if err := h.handleMsg(ctx, conn, client, inbound, logger); err != nil {
				return err
			}
		default:
			if err := writeError(ctx, conn, core.ErrCodeInvalidMessage, "unknown message type"); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) handleMsg(ctx context.Context, conn *websocket.Conn, client *core.Client, inbound proto.Inbound, logger *zerolog.Logger) error {
	data, protoErr, err := decodeMsg(inbound)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to decode msg")
		return writeError(ctx, conn, core.ErrCodeBadRequest, "malformed msg payload")
	}
	if protoErr != nil {
		return writeError(ctx, conn, protoErr.Code, protoErr.Msg)
	}

	msg, outcome, err := h.messages.Send(ctx, client.UserID(), data.To, data.Text)
	if err != nil {
		status, perr := sendErrorToProto(err)
		if status == stdhttp.StatusInternalServerError {
			logger.Error().Err(err).Msg("failed to send message")
		}
		return writeError(ctx, conn, perr.Code, perr.Msg)
	}

	return wsjson.Write(ctx, conn, proto.Outbound{
		Type: proto.OutboundTypeAck,
		Data: proto.Ack{ID: msg.ID, Delivered: outcome == core.Delivered},
	})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, logger *zerolog.Logger) error {
	for {
		var event *core.Event
		select {
		case event = <-client.Presence():
		case event = <-client.Events():
		case <-client.Done():
			return errClientClosed
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
			logger.Error().Err(err).Msg("write ws event")
			return err
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	})
}
