// Package backend is the HTTP adapter between the chat controller and the messaging backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat/internal/chat"
	"github.com/vovakirdan/socialchat/internal/proto"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// errorBodyLimit bounds how much of an error body is kept in BackendError.
const errorBodyLimit = 512

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// HTTPClient overrides the default client. Its cookie jar carries the session.
	HTTPClient *http.Client
	// Tokens supplies X-CSRFToken. Defaults to a PageSource on PagePath.
	Tokens   TokenSource
	PagePath string
	Logger   *zerolog.Logger
}

// Client implements chat.Backend over HTTP.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	log    *zerolog.Logger
}

var _ chat.Backend = (*Client)(nil)

// New creates a client. Without an explicit HTTPClient it builds one with a cookie jar.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar, Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Client{
		base: base,
		http: httpClient,
		log:  logger,
	}

	c.tokens = cfg.Tokens
	if c.tokens == nil {
		pagePath := cfg.PagePath
		if pagePath == "" {
			pagePath = proto.PathMessagesPage
		}
		c.tokens = NewPageSource(httpClient, c.url(pagePath))
	}

	return c, nil
}

// HTTPClient returns the underlying client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Tokens returns the CSRF token source.
func (c *Client) Tokens() TokenSource {
	return c.tokens
}

// OpenChat calls GET /chat/{peer}/.
func (c *Client) OpenChat(ctx context.Context, peer string) (chat.ChatID, error) {
	const op = "open_chat"

	req, err := c.newRequest(ctx, op, http.MethodGet, proto.OpenChatPath(peer), nil, true)
	if err != nil {
		return "", err
	}

	var resp proto.OpenChatResponse
	if err := c.do(op, req, &resp); err != nil {
		return "", err
	}
	if resp.ChatID == "" {
		return "", &chat.BackendError{Op: op, Status: http.StatusOK, Err: errors.New("response has no chat_id")}
	}
	return chat.ChatID(resp.ChatID), nil
}

// ListMessages calls GET /chat/{id}/messages/.
func (c *Client) ListMessages(ctx context.Context, id chat.ChatID) ([]chat.Message, error) {
	const op = "load_messages"

	req, err := c.newRequest(ctx, op, http.MethodGet, proto.MessagesPath(id.String()), nil, false)
	if err != nil {
		return nil, err
	}

	var resp proto.MessagesResponse
	if err := c.do(op, req, &resp); err != nil {
		return nil, err
	}

	messages := make([]chat.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, chat.Message{
			SenderUsername: m.SenderUsername,
			Content:        m.Content,
			Timestamp:      m.Timestamp,
		})
	}
	return messages, nil
}

// PostMessage calls POST /send_message/ with a form body.
func (c *Client) PostMessage(ctx context.Context, id chat.ChatID, content string) (chat.Message, error) {
	const op = "send_message"

	form := url.Values{}
	form.Set(proto.FormChatID, id.String())
	form.Set(proto.FormContent, content)

	req, err := c.newRequest(ctx, op, http.MethodPost, proto.PathSendMessage, strings.NewReader(form.Encode()), true)
	if err != nil {
		return chat.Message{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp proto.SendMessageResponse
	if err := c.do(op, req, &resp); err != nil {
		return chat.Message{}, err
	}
	return chat.Message{
		SenderUsername: resp.Sender,
		Content:        resp.Content,
		Timestamp:      resp.Timestamp,
	}, nil
}

// SearchUsers calls GET /api/users/search to find people to chat with.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]proto.UserItem, error) {
	const op = "search_users"

	req, err := c.newRequest(ctx, op, http.MethodGet, proto.PathUserSearch, nil, false)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = url.Values{"q": {query}}.Encode()

	var users []proto.UserItem
	if err := c.do(op, req, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Login authenticates and stores the session cookie in the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (*proto.AuthResponse, error) {
	return c.authenticate(ctx, "login", proto.PathLogin, proto.LoginRequest{Username: username, Password: password})
}

// Register creates an account and stores the session cookie in the client's jar.
func (c *Client) Register(ctx context.Context, username, password string) (*proto.AuthResponse, error) {
	return c.authenticate(ctx, "register", proto.PathRegister, proto.RegisterRequest{Username: username, Password: password})
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (*proto.AuthResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := c.newRequest(ctx, op, http.MethodPost, path, bytes.NewReader(payload), false)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp proto.AuthResponse
	if err := c.do(op, req, &resp); err != nil {
		return nil, err
	}

	// A new session means a new CSRF token.
	if inv, ok := c.tokens.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
	return &resp, nil
}

func (c *Client) url(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, op, method, path string, body io.Reader, csrf bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	if csrf {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, &chat.NetworkError{Op: op, Err: fmt.Errorf("csrf token: %w", err)}
		}
		req.Header.Set(proto.HeaderCSRFToken, token)
	}
	return req, nil
}

func (c *Client) do(op string, req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &chat.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &chat.NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	c.log.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusForbidden {
			if inv, ok := c.tokens.(interface{ Invalidate() }); ok {
				inv.Invalidate()
			}
		}
		return &chat.BackendError{Op: op, Status: resp.StatusCode, Body: truncate(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &chat.BackendError{
			Op:     op,
			Status: resp.StatusCode,
			Body:   truncate(string(body)),
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > errorBodyLimit {
		return s[:errorBodyLimit] + "..."
	}
	return s
}
