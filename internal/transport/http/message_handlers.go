package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/service/messages"
)

// MessageHandlers provides HTTP handlers for direct messages.
type MessageHandlers struct {
	messages *messages.Service
	log      *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(msgService *messages.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{messages: msgService, log: logger}
}

// SendMessageRequest represents the send message request body.
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID         int64  `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
	CreatedAt  string `json:"created_at"`
}

// SendMessageResponse reports the stored message and whether it reached a live session.
type SendMessageResponse struct {
	Message   MessageResponse `json:"message"`
	Delivered bool            `json:"delivered"`
}

// History returns the conversation with another user.
// GET /api/messages/:id?before=<message id>
func (h *MessageHandlers) History(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var beforeID *int64
	if raw := c.Query("before"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before parameter"})
			return
		}
		beforeID = &v
	}

	msgs, err := h.messages.History(c.Request.Context(), uid, c.Param("id"), beforeID)
	if err != nil {
		if errors.Is(err, messages.ErrInvalidCursor) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Str("user_id", uid).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		response = append(response, messageResponse(m))
	}
	c.JSON(http.StatusOK, response)
}

// Send persists a message and pushes it to the receiver if they are online.
// POST /api/messages/send/:id
func (h *MessageHandlers) Send(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, outcome, err := h.messages.Send(c.Request.Context(), uid, c.Param("id"), req.Text)
	if err != nil {
		status, perr := sendErrorToProto(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("user_id", uid).Msg("failed to send message")
		}
		c.JSON(status, ErrorResponse{Error: perr.Msg})
		return
	}

	c.JSON(http.StatusCreated, SendMessageResponse{
		Message:   messageResponse(msg),
		Delivered: outcome == core.Delivered,
	})
}
