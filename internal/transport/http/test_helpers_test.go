package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat/internal/auth"
	"github.com/vovakirdan/socialchat/internal/config"
	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/service/chats"
	"github.com/vovakirdan/socialchat/internal/store"
	"github.com/vovakirdan/socialchat/internal/store/sqlite"
)

type testEnv struct {
	store  store.Store
	auth   *auth.Service
	chats  *chats.Service
	server *httptest.Server
}

// newTestEnv starts the full router on an in-memory store.
func newTestEnv(t *testing.T, opts chats.Options) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := createTestAuthService(t, st, "test-secret")
	chatService := chats.New(st, opts)

	disabledLogger := zerolog.Nop()
	cfg := config.Default()
	cfg.Addr = ":0"

	srv := NewServer(chatService, authService, &cfg, &disabledLogger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{store: st, auth: authService, chats: chatService, server: ts}
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.UserStore, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

func (e *testEnv) register(t *testing.T, username string) *auth.Session {
	t.Helper()

	sess, err := e.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return sess
}

// request builds a request authenticated with a Bearer token.
func (e *testEnv) request(t *testing.T, method, path, token string, form string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(form))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if form != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: proto.CookieSession, Value: token}
}
