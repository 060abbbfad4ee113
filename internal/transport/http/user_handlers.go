package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/service/chats"
)

const (
	minSearchLength  = 3
	maxSearchResults = 20
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	chats *chats.Service
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(chatService *chats.Service, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		chats: chatService,
		log:   logger,
	}
}

// SearchUsers finds people to open a chat with.
// GET /api/users/search?q=query
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	trimmed := strings.TrimSpace(c.Query("q"))
	if len(trimmed) < minSearchLength {
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: "search query must be at least 3 characters"})
		return
	}

	uid, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "unauthorized"})
		return
	}

	users, err := h.chats.SearchUsers(c.Request.Context(), uid, trimmed, maxSearchResults)
	if err != nil {
		h.log.Error().Err(err).Str("query", trimmed).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]proto.UserItem, 0, len(users))
	for _, u := range users {
		response = append(response, proto.UserItem{Username: u.Username, Avatar: u.AvatarURL})
	}
	c.JSON(http.StatusOK, response)
}
