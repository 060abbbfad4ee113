package backend

import (
	"context"
	"net/http"
	"sync"

	"github.com/vovakirdan/socialchat/internal/page"
)

// TokenSource supplies the CSRF token sent with chat requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// PageSource reads the token from the server-rendered messages page and caches it
// until Invalidate is called.
type PageSource struct {
	client *http.Client
	url    string

	mu   sync.Mutex
	page *page.Page
}

// NewPageSource creates a source reading pageURL with client. The client must share
// the cookie jar used for chat requests so the csrftoken cookie matches.
func NewPageSource(client *http.Client, pageURL string) *PageSource {
	return &PageSource{client: client, url: pageURL}
}

// Token returns the cached token, fetching the page on first use.
func (s *PageSource) Token(ctx context.Context) (string, error) {
	p, err := s.Page(ctx)
	if err != nil {
		return "", err
	}
	return p.CSRFToken, nil
}

// Page returns the cached page, fetching it on first use.
func (s *PageSource) Page(ctx context.Context) (*page.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		return s.page, nil
	}
	p, err := page.Fetch(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}
	s.page = p
	return p, nil
}

// Invalidate drops the cached page so the next call refetches it.
func (s *PageSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = nil
}
