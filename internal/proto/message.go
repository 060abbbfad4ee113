// Package proto holds the JSON and form shapes exchanged with the messaging backend.
package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Routes and field names shared by client and server.
const (
	PathOpenChatPrefix = "/chat/"
	PathMessagesSuffix = "/messages/"
	PathSendMessage    = "/send_message/"
	PathMessagesPage   = "/message/"
	PathRegister       = "/api/register"
	PathLogin          = "/api/login"

	HeaderCSRFToken = "X-CSRFToken"
	CookieCSRFToken = "csrftoken"
	CookieSession   = "sessionid"
	FormCSRFField   = "csrfmiddlewaretoken"

	FormChatID  = "chat_id"
	FormContent = "content"

	// TimestampLayout is how the backend renders message timestamps.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ID is a chat identifier. It decodes from either a JSON string or a JSON number.
type ID string

// UnmarshalJSON accepts "42" and 42.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chat id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("chat id %s: not an integer", n)
	}
	*id = ID(n.String())
	return nil
}

// OpenChatResponse is returned by GET /chat/{username}/.
type OpenChatResponse struct {
	ChatID ID `json:"chat_id"`
}

// MessageItem is one entry of the message history.
type MessageItem struct {
	SenderUsername string `json:"sender__username"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

// MessagesResponse is returned by GET /chat/{chat_id}/messages/.
type MessagesResponse struct {
	Messages []MessageItem `json:"messages"`
}

// SendMessageResponse echoes a stored message from POST /send_message/.
type SendMessageResponse struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// RegisterRequest is the JSON body of POST /api/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the JSON body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the session token.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OpenChatPath builds the open-chat route for username.
func OpenChatPath(username string) string {
	return PathOpenChatPrefix + url.PathEscape(username) + "/"
}

// MessagesPath builds the message-history route for a chat.
func MessagesPath(chatID string) string {
	return PathOpenChatPrefix + url.PathEscape(chatID) + PathMessagesSuffix
}

// PathUserSearch finds users to chat with: GET /api/users/search?q=...
const PathUserSearch = "/api/users/search"

// UserItem is a user as returned by the search endpoint.
type UserItem struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}
