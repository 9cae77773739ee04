package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/service/messages"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// UserHandlers provides HTTP handlers for contact lists and presence.
type UserHandlers struct {
	messages *messages.Service
	hub      *core.Hub
	log      *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(msgService *messages.Service, hub *core.Hub, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		messages: msgService,
		hub:      hub,
		log:      logger,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Online   bool   `json:"online"`
}

// Contacts lists every other user.
// GET /api/messages/contacts
func (h *UserHandlers) Contacts(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	users, err := h.messages.Contacts(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("failed to list contacts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, h.usersResponse(users))
}

// Chats lists users the caller has exchanged messages with.
// GET /api/messages/chats
func (h *UserHandlers) Chats(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	users, err := h.messages.Chats(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("failed to list chat partners")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, h.usersResponse(users))
}

// Presence returns the current online set.
// GET /api/presence
func (h *UserHandlers) Presence(c *gin.Context) {
	c.JSON(http.StatusOK, proto.EventPresence{Online: h.hub.Online()})
}

func (h *UserHandlers) usersResponse(users []*store.User) []UserResponse {
	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userResponse(u, h.hub.IsOnline(u.ID)))
	}
	return response
}
