package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/service/chats"
	"github.com/vovakirdan/socialchat/internal/store"
)

const errContentRequired = "Chat ID and content are required"

// ChatHandlers serves the chat endpoints used by the widget.
type ChatHandlers struct {
	chats *chats.Service
	log   *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(chatService *chats.Service, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		chats: chatService,
		log:   logger,
	}
}

// OpenChat returns the id of the direct chat with a user, creating it if needed.
// GET /chat/:username/
func (h *ChatHandlers) OpenChat(c *gin.Context) {
	uid, username, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "unauthorized"})
		return
	}
	peer := c.Param("ref")

	chat, err := h.chats.OpenChat(c.Request.Context(), uid, peer)
	if err != nil {
		h.writeError(c, err, "open chat")
		return
	}

	h.log.Debug().Str("user", username).Str("peer", peer).Int64("chat_id", chat.ID).Msg("chat opened")
	c.JSON(http.StatusOK, proto.OpenChatResponse{ChatID: proto.ID(strconv.FormatInt(chat.ID, 10))})
}

// ListMessages returns the history of a chat, oldest first.
// GET /chat/:chat_id/messages/
func (h *ChatHandlers) ListMessages(c *gin.Context) {
	uid, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "unauthorized"})
		return
	}

	chatID, err := strconv.ParseInt(c.Param("ref"), 10, 64)
	if err != nil || chatID <= 0 {
		c.JSON(http.StatusNotFound, proto.ErrorResponse{Error: "chat not found"})
		return
	}

	msgs, err := h.chats.ListMessages(c.Request.Context(), uid, chatID)
	if err != nil {
		h.writeError(c, err, "list messages")
		return
	}

	resp := proto.MessagesResponse{Messages: make([]proto.MessageItem, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toMessageItem(m))
	}
	c.JSON(http.StatusOK, resp)
}

// SendMessage stores a message posted as a form.
// POST /send_message/
func (h *ChatHandlers) SendMessage(c *gin.Context) {
	uid, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "unauthorized"})
		return
	}

	rawID := strings.TrimSpace(c.PostForm(proto.FormChatID))
	content := c.PostForm(proto.FormContent)
	if rawID == "" || content == "" {
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: errContentRequired})
		return
	}
	chatID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: errContentRequired})
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), uid, chatID, content)
	if err != nil {
		h.writeError(c, err, "send message")
		return
	}

	c.JSON(http.StatusOK, proto.SendMessageResponse{
		Sender:    msg.SenderUsername,
		Content:   msg.Body,
		Timestamp: msg.CreatedAt.UTC().Format(proto.TimestampLayout),
	})
}

func (h *ChatHandlers) writeError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, chats.ErrContentRequired):
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: errContentRequired})
	case errors.Is(err, chats.ErrCannotChatSelf):
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, chats.ErrUserNotFound), errors.Is(err, chats.ErrChatNotFound):
		c.JSON(http.StatusNotFound, proto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, chats.ErrNotParticipant):
		c.JSON(http.StatusForbidden, proto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, chats.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, proto.ErrorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Str("op", op).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("chat request failed")
		c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "internal server error"})
	}
}

func toMessageItem(m *store.Message) proto.MessageItem {
	return proto.MessageItem{
		SenderUsername: m.SenderUsername,
		Content:        m.Body,
		Timestamp:      m.CreatedAt.UTC().Format(proto.TimestampLayout),
	}
}
