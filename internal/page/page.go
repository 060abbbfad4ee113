// Package page extracts the values the chat widget needs from the server-rendered messages page.
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/vovakirdan/socialchat/internal/proto"
)

// ErrNoCSRFToken is returned when the page carries no csrfmiddlewaretoken field.
var ErrNoCSRFToken = errors.New("csrf token not found in page")

// Page holds what the widget reads from the document.
type Page struct {
	CSRFToken   string
	CurrentUser string
	Chats       []ChatLink
}

// ChatLink is a chat entry listed on the page.
type ChatLink struct {
	Peer   string
	ChatID string
	Avatar string
}

// Parse walks an HTML document. It fails only when the CSRF field is missing.
func Parse(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &Page{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			visit(p, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if p.CSRFToken == "" {
		return p, ErrNoCSRFToken
	}
	return p, nil
}

// Fetch GETs the page at url with client and parses it.
func Fetch(ctx context.Context, client *http.Client, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}
	return Parse(resp.Body)
}

func visit(p *Page, n *html.Node) {
	switch {
	case n.Data == "input" && attr(n, "name") == proto.FormCSRFField:
		if p.CSRFToken == "" {
			p.CSRFToken = attr(n, "value")
		}
	case attr(n, "id") == "chat-box":
		p.CurrentUser = attr(n, "data-current-user")
	}

	if peer := attr(n, "data-peer"); peer != "" {
		p.Chats = append(p.Chats, ChatLink{
			Peer:   peer,
			ChatID: attr(n, "data-chat-id"),
			Avatar: attr(n, "data-avatar"),
		})
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
