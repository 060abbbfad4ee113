package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/service/chats"
)

func makeJWT(secret, aud, iss string, userID int64, name string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": name,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	if aud != "" {
		claims["aud"] = aud
	}
	if iss != "" {
		claims["iss"] = iss
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func TestSessionToken_Validation(t *testing.T) {
	env := newTestEnv(t, chats.Options{})
	alice := env.register(t, "alice")
	env.register(t, "bob")

	tests := []struct {
		name   string
		secret string
		aud    string
		iss    string
		ttl    time.Duration
		status int
	}{
		{name: "valid", secret: "test-secret", aud: "test", iss: "test", ttl: time.Minute, status: http.StatusOK},
		{name: "wrong secret", secret: "other", aud: "test", iss: "test", ttl: time.Minute, status: http.StatusUnauthorized},
		{name: "wrong audience", secret: "test-secret", aud: "other", iss: "test", ttl: time.Minute, status: http.StatusUnauthorized},
		{name: "wrong issuer", secret: "test-secret", aud: "test", iss: "other", ttl: time.Minute, status: http.StatusUnauthorized},
		{name: "expired", secret: "test-secret", aud: "test", iss: "test", ttl: -time.Minute, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := makeJWT(tt.secret, tt.aud, tt.iss, alice.UserID, "alice", tt.ttl)
			if err != nil {
				t.Fatalf("make jwt: %v", err)
			}

			resp := env.do(t, env.request(t, http.MethodGet, proto.OpenChatPath("bob"), token, ""))
			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestSessionToken_CookieAndHeaderForms(t *testing.T) {
	env := newTestEnv(t, chats.Options{})
	alice := env.register(t, "alice")
	env.register(t, "bob")

	req := env.request(t, http.MethodGet, proto.OpenChatPath("bob"), "", "")
	req.AddCookie(sessionCookie(alice.Token))
	if resp := env.do(t, req); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected cookie session to pass, got %d", resp.StatusCode)
	}

	req = env.request(t, http.MethodGet, proto.OpenChatPath("bob"), "", "")
	req.Header.Set("Authorization", "Token "+alice.Token)
	if resp := env.do(t, req); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected non-bearer scheme to fail, got %d", resp.StatusCode)
	}
}
