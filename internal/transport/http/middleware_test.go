package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/service/chats"
)

func TestCSRF_CookieSessionRequiresMatchingHeader(t *testing.T) {
	env := newTestEnv(t, chats.Options{})
	alice := env.register(t, "alice")
	env.register(t, "bob")

	// Safe requests pass with only the session cookie.
	req := env.request(t, http.MethodGet, proto.OpenChatPath("bob"), "", "")
	req.AddCookie(sessionCookie(alice.Token))
	resp := env.do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected GET to pass, got %d", resp.StatusCode)
	}
	opened := decode[proto.OpenChatResponse](t, resp)
	form := url.Values{proto.FormChatID: {string(opened.ChatID)}, proto.FormContent: {"hi"}}.Encode()

	tests := []struct {
		name   string
		cookie string
		header string
		status int
	}{
		{name: "no token", status: http.StatusForbidden},
		{name: "header only", header: "abc", status: http.StatusForbidden},
		{name: "mismatch", cookie: "abc", header: "abd", status: http.StatusForbidden},
		{name: "match", cookie: "abc", header: "abc", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.request(t, http.MethodPost, proto.PathSendMessage, "", form)
			req.AddCookie(sessionCookie(alice.Token))
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: proto.CookieCSRFToken, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(proto.HeaderCSRFToken, tt.header)
			}
			if resp := env.do(t, req); resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestCSRF_BearerSessionIsExempt(t *testing.T) {
	env := newTestEnv(t, chats.Options{})
	alice := env.register(t, "alice")
	env.register(t, "bob")

	opened := decode[proto.OpenChatResponse](t, env.do(t, env.request(t, http.MethodGet, proto.OpenChatPath("bob"), alice.Token, "")))
	form := url.Values{proto.FormChatID: {string(opened.ChatID)}, proto.FormContent: {"hi"}}.Encode()

	if resp := env.do(t, env.request(t, http.MethodPost, proto.PathSendMessage, alice.Token, form)); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected bearer request to pass, got %d", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, chats.Options{})

	resp := env.do(t, env.request(t, http.MethodGet, "/health", "", ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated request id")
	}

	req := env.request(t, http.MethodGet, "/health", "", "")
	req.Header.Set("X-Request-ID", "trace-1")
	if got := env.do(t, req).Header.Get("X-Request-ID"); got != "trace-1" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}
}
