package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/service/chats"
)

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestOpenChat(t *testing.T) {
	env := newTestEnv(t, chats.Options{})
	alice := env.register(t, "alice")
	env.register(t, "bob")

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{name: "creates chat", path: proto.OpenChatPath("bob"), token: alice.Token, status: http.StatusOK},
		{name: "unknown user", path: proto.OpenChatPath("ghost"), token: alice.Token, status: http.StatusNotFound},
		{name: "self chat", path: proto.OpenChatPath("alice"), token: alice.Token, status: http.StatusBadRequest},
		{name: "no session", path: proto.OpenChatPath("bob"), status: http.StatusUnauthorized},
		{name: "bad token", path: proto.OpenChatPath("bob"), token: "garbage", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, env.request(t, http.MethodGet, tt.path, tt.token, ""))
			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}

	first := decode[proto.OpenChatResponse](t, env.do(t, env.request(t, http.MethodGet, proto.OpenChatPath("bob"), alice.Token, "")))
	second := decode[proto.OpenChatResponse](t, env.do(t, env.request(t, http.MethodGet, proto.OpenChatPath("bob"), alice.Token, "")))
	if first.ChatID == "" || first.ChatID != second.ChatID {
		t.Fatalf("expected a stable chat id, got %q and %q", first.ChatID, second.ChatID)
	}
}

func TestSendAndListMessages(t *testing.T) {
	env := newTestEnv(t, chats.Options{})
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	opened := decode[proto.OpenChatResponse](t, env.do(t, env.request(t, http.MethodGet, proto.OpenChatPath("bob"), alice.Token, "")))
	chatID := string(opened.ChatID)

	form := url.Values{proto.FormChatID: {chatID}, proto.FormContent: {"hello & welcome"}}.Encode()
	resp := env.do(t, env.request(t, http.MethodPost, proto.PathSendMessage, alice.Token, form))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	sent := decode[proto.SendMessageResponse](t, resp)
	if sent.Sender != "alice" || sent.Content != "hello & welcome" || sent.Timestamp == "" {
		t.Fatalf("unexpected echo: %+v", sent)
	}

	form = url.Values{proto.FormChatID: {chatID}, proto.FormContent: {"hi alice"}}.Encode()
	if resp := env.do(t, env.request(t, http.MethodPost, proto.PathSendMessage, bob.Token, form)); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for bob, got %d", resp.StatusCode)
	}

	resp = env.do(t, env.request(t, http.MethodGet, proto.MessagesPath(chatID), bob.Token, ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	history := decode[proto.MessagesResponse](t, resp)
	if len(history.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history.Messages))
	}
	if history.Messages[0].SenderUsername != "alice" || history.Messages[1].SenderUsername != "bob" {
		t.Errorf("unexpected order: %+v", history.Messages)
	}

	if resp := env.do(t, env.request(t, http.MethodGet, proto.MessagesPath(chatID), carol.Token, "")); resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for outsider, got %d", resp.StatusCode)
	}
	if resp := env.do(t, env.request(t, http.MethodGet, proto.MessagesPath("999"), alice.Token, "")); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown chat, got %d", resp.StatusCode)
	}
	if resp := env.do(t, env.request(t, http.MethodGet, proto.MessagesPath("abc"), alice.Token, "")); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for malformed chat id, got %d", resp.StatusCode)
	}
}

func TestListMessages_EmptyHistoryIsEmptyArray(t *testing.T) {
	env := newTestEnv(t, chats.Options{})
	alice := env.register(t, "alice")
	env.register(t, "bob")

	opened := decode[proto.OpenChatResponse](t, env.do(t, env.request(t, http.MethodGet, proto.OpenChatPath("bob"), alice.Token, "")))

	resp := env.do(t, env.request(t, http.MethodGet, proto.MessagesPath(string(opened.ChatID)), alice.Token, ""))
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["messages"]) != "[]" {
		t.Fatalf("expected empty array, got %s", raw["messages"])
	}
}

func TestSendMessage_RequiresChatIDAndContent(t *testing.T) {
	env := newTestEnv(t, chats.Options{})
	alice := env.register(t, "alice")

	tests := []struct {
		name string
		form url.Values
	}{
		{name: "missing content", form: url.Values{proto.FormChatID: {"1"}}},
		{name: "missing chat id", form: url.Values{proto.FormContent: {"hi"}}},
		{name: "non numeric chat id", form: url.Values{proto.FormChatID: {"x"}, proto.FormContent: {"hi"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, env.request(t, http.MethodPost, proto.PathSendMessage, alice.Token, tt.form.Encode()))
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", resp.StatusCode)
			}
			body := decode[proto.ErrorResponse](t, resp)
			if body.Error != "Chat ID and content are required" {
				t.Fatalf("unexpected error body: %q", body.Error)
			}
		})
	}
}

func TestSendMessage_RateLimited(t *testing.T) {
	env := newTestEnv(t, chats.Options{SendRateLimit: 1})
	alice := env.register(t, "alice")
	env.register(t, "bob")

	opened := decode[proto.OpenChatResponse](t, env.do(t, env.request(t, http.MethodGet, proto.OpenChatPath("bob"), alice.Token, "")))
	form := url.Values{proto.FormChatID: {string(opened.ChatID)}, proto.FormContent: {"hi"}}.Encode()

	if resp := env.do(t, env.request(t, http.MethodPost, proto.PathSendMessage, alice.Token, form)); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected first send to pass, got %d", resp.StatusCode)
	}
	if resp := env.do(t, env.request(t, http.MethodPost, proto.PathSendMessage, alice.Token, form)); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}
