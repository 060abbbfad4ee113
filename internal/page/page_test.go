package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html><body>
<form id="chat-form">
  <input type="hidden" name="csrfmiddlewaretoken" value="tok-123">
  <input id="chat-message" name="content">
</form>
<ul class="chat-list">
  <li data-peer="bob" data-chat-id="7" data-avatar="/media/bob.png">bob</li>
  <li data-peer="carol" data-chat-id="9">carol</li>
</ul>
<div id="chat-box" data-current-user="alice"></div>
</body></html>`

func TestParse(t *testing.T) {
	p, err := Parse(strings.NewReader(samplePage))
	require.NoError(t, err)

	assert.Equal(t, "tok-123", p.CSRFToken)
	assert.Equal(t, "alice", p.CurrentUser)
	assert.Equal(t, []ChatLink{
		{Peer: "bob", ChatID: "7", Avatar: "/media/bob.png"},
		{Peer: "carol", ChatID: "9"},
	}, p.Chats)
}

func TestParse_MissingToken(t *testing.T) {
	p, err := Parse(strings.NewReader(`<div id="chat-box" data-current-user="alice"></div>`))
	require.ErrorIs(t, err, ErrNoCSRFToken)
	assert.Equal(t, "alice", p.CurrentUser)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	p, err := Fetch(context.Background(), srv.Client(), srv.URL+"/message/")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", p.CSRFToken)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/missing/")
	require.Error(t, err)
}
