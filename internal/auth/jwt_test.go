package auth

import (
	"errors"
	"testing"
	"time"
)

func TestValidateToken(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("secret"), Issuer: "socialchat", Audience: "socialchat", TTL: time.Hour}

	token, expires, err := GenerateToken(cfg, 7, "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected expiry in the future, got %v", expires)
	}

	tests := []struct {
		name    string
		cfg     *JWTConfig
		wantErr bool
	}{
		{name: "valid", cfg: cfg},
		{name: "wrong secret", cfg: &JWTConfig{Secret: []byte("other"), Issuer: cfg.Issuer, Audience: cfg.Audience}, wantErr: true},
		{name: "wrong issuer", cfg: &JWTConfig{Secret: cfg.Secret, Issuer: "evil", Audience: cfg.Audience}, wantErr: true},
		{name: "wrong audience", cfg: &JWTConfig{Secret: cfg.Secret, Issuer: cfg.Issuer, Audience: "evil"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.cfg, token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if claims.UserID != 7 || claims.Username != "alice" {
				t.Fatalf("unexpected claims: %+v", claims)
			}
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("secret"), TTL: -time.Minute}

	token, _, err := GenerateToken(cfg, 1, "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := ValidateToken(cfg, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}
