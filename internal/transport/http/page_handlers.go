package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/service/chats"
	"github.com/vovakirdan/socialchat/internal/utils"
)

const (
	messagesTemplateName = "messages.html"
	csrfCookieMaxAge     = 365 * 24 * 60 * 60
)

// messagesTemplate is the server-rendered messages page. The widget reads the hidden
// csrf field, the current user on #chat-box and the data-* attributes of the chat list.
const messagesTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Messages</title>
</head>
<body>
<form id="chat-form" method="post" action="/send_message/">
<input type="hidden" name="csrfmiddlewaretoken" value="{{.CSRFToken}}">
<input type="text" name="content" id="chat-input" autocomplete="off">
</form>
<ul id="chat-list">
{{- range .Chats}}
<li class="chat-item" data-peer="{{.Peer}}" data-chat-id="{{.ChatID}}" data-avatar="{{.Avatar}}">{{.Peer}}</li>
{{- else}}
<li class="chat-empty">No conversations yet.</li>
{{- end}}
</ul>
<div id="chat-box" data-current-user="{{.CurrentUser}}" hidden>
<div id="chat-messages"></div>
</div>
</body>
</html>
`

type messagesPage struct {
	CSRFToken   string
	CurrentUser string
	Chats       []chatItem
}

type chatItem struct {
	Peer   string
	ChatID string
	Avatar string
}

// PageHandlers renders HTML pages.
type PageHandlers struct {
	chats *chats.Service
	log   *zerolog.Logger
}

// NewPageHandlers creates a new page handlers instance.
func NewPageHandlers(chatService *chats.Service, logger *zerolog.Logger) *PageHandlers {
	return &PageHandlers{
		chats: chatService,
		log:   logger,
	}
}

// Messages renders the messages page and issues the csrftoken cookie when missing.
// GET /message/
func (h *PageHandlers) Messages(c *gin.Context) {
	uid, username, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "unauthorized"})
		return
	}

	token, err := h.csrfToken(c)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate csrf token")
		c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "internal server error"})
		return
	}

	summaries, err := h.chats.ListChats(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list chats")
		c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "internal server error"})
		return
	}

	data := messagesPage{CSRFToken: token, CurrentUser: username}
	for _, s := range summaries {
		data.Chats = append(data.Chats, chatItem{
			Peer:   s.PeerUsername,
			ChatID: strconv.FormatInt(s.ChatID, 10),
			Avatar: s.PeerAvatar,
		})
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, messagesTemplateName, data)
}

// csrfToken reuses the caller's csrftoken cookie or issues a new one.
func (h *PageHandlers) csrfToken(c *gin.Context) (string, error) {
	if existing, err := c.Cookie(proto.CookieCSRFToken); err == nil && existing != "" {
		return existing, nil
	}
	token, err := utils.NewToken()
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(proto.CookieCSRFToken, token, csrfCookieMaxAge, "/", "", c.Request.TLS != nil, false)
	return token, nil
}
