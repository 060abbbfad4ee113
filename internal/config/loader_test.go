package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_WritesDefaultConfigWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.Client.PagePath != "/message/" {
		t.Errorf("expected default page path, got %q", cfg.Client.PagePath)
	}
}

func TestLoad_FileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("addr: \":9090\"\nsend_rate_limit: 5\nclient:\n  base_url: http://file.example\n  poll_interval: 2s\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SOCIALCHAT_ADDR", ":7070")
	t.Setenv("SOCIALCHAT_CLIENT_USERNAME", "alice")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":7070" {
		t.Errorf("env should override file addr, got %q", cfg.Addr)
	}
	if cfg.SendRateLimit != 5 {
		t.Errorf("expected send_rate_limit 5 from file, got %d", cfg.SendRateLimit)
	}
	if cfg.Client.BaseURL != "http://file.example" {
		t.Errorf("expected base url from file, got %q", cfg.Client.BaseURL)
	}
	if cfg.Client.PollInterval != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %v", cfg.Client.PollInterval)
	}
	if cfg.Client.Username != "alice" {
		t.Errorf("expected username from env, got %q", cfg.Client.Username)
	}
}

func TestUpdateFrom_KeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1", Client: ClientConfig{Username: "bob"}})

	if cfg.Addr != ":1" {
		t.Errorf("expected addr override, got %q", cfg.Addr)
	}
	if cfg.DatabasePath != "socialchat.db" {
		t.Errorf("zero value should not override database path, got %q", cfg.DatabasePath)
	}
	if cfg.Client.Username != "bob" {
		t.Errorf("expected client username override, got %q", cfg.Client.Username)
	}
	if cfg.Client.BaseURL != "http://localhost:8080" {
		t.Errorf("zero value should not override base url, got %q", cfg.Client.BaseURL)
	}
}

func TestLoadClient_NeverWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	t.Setenv("SOCIALCHAT_CLIENT_PASSWORD", "secret")

	cfg, resolved, err := LoadClient(nil, path)
	if err != nil {
		t.Fatalf("load client: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be written, stat err: %v", err)
	}
	if cfg.Client.Password != "secret" {
		t.Errorf("expected password from env, got %q", cfg.Client.Password)
	}
}

func TestLoadClient_DefaultPathFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SOCIALCHAT_CONFIG_DEFAULT_PATH", dir)

	_, resolved, err := LoadClient(nil, "")
	if err != nil {
		t.Fatalf("load client: %v", err)
	}
	if resolved != filepath.Join(dir, "config.yaml") {
		t.Fatalf("unexpected path %q", resolved)
	}
}

func TestLoad_DefaultFileOmitsPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("SOCIALCHAT_CLIENT_PASSWORD", "p4ss-w0rd-xyz")

	if _, _, err := Load(nil, path); err != nil {
		t.Fatalf("load: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read default config: %v", err)
	}
	if strings.Contains(string(data), "p4ss-w0rd-xyz") || !strings.Contains(string(data), `password: ""`) {
		t.Fatalf("default config must not contain the password:\n%s", data)
	}
}
