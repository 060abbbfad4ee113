// Package chat implements the chat session controller: it opens a chat with a peer,
// loads and renders its transcript, sends messages and closes the session.
package chat

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// User-facing notices.
const (
	NoticeOpenFailed    = "Unable to open chat. Please try again."
	NoticeLoadFailed    = "Failed to load messages. Please try again."
	NoticeSendFailed    = "Failed to send message. Please try again."
	NoticeEmptyMessage  = "Message cannot be empty."
	NoticeUninitialized = "Chat session not initialized."
	NoticeEmptyPeer     = "Choose someone to chat with."
)

// Backend is the messaging backend the controller talks to.
type Backend interface {
	// OpenChat creates or fetches the chat with peer.
	OpenChat(ctx context.Context, peer string) (ChatID, error)
	// ListMessages returns the chat history, oldest first.
	ListMessages(ctx context.Context, id ChatID) ([]Message, error)
	// PostMessage stores content and returns the message as echoed by the backend.
	PostMessage(ctx context.Context, id ChatID, content string) (Message, error)
}

// View renders controller state. The controller serializes all calls, and a View
// must not call back into the controller.
type View interface {
	Show(s Session)
	Hide()
	// Render replaces the whole transcript.
	Render(t Transcript)
	// Append adds a single entry to the rendered transcript.
	Append(e Entry)
	Notice(text string)
	ClearInput()
}

// Controller manages the single active chat session.
// It is safe for concurrent use; the lock is never held across a backend call.
type Controller struct {
	backend     Backend
	view        View
	currentUser string
	log         *zerolog.Logger

	mu         sync.Mutex
	session    Session
	transcript Transcript
	// seq orders transcript-changing requests; only the latest may render.
	seq uint64
	// gen changes whenever the session is replaced or closed.
	gen uint64
	// sent holds messages sent since the latest load began. That load may have
	// been answered before they were stored.
	sent []Message
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithCurrentUser sets the username used to classify entries as sent or received.
func WithCurrentUser(username string) Option {
	return func(c *Controller) {
		c.currentUser = username
	}
}

// New creates a controller with no open session.
func New(backend Backend, view View, opts ...Option) *Controller {
	nop := zerolog.Nop()
	c := &Controller{
		backend: backend,
		view:    view,
		log:     &nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Transcript returns a copy of the rendered transcript.
func (c *Controller) Transcript() Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.clone()
}

// OpenChat opens the chat with peer and loads its messages.
func (c *Controller) OpenChat(ctx context.Context, peer string) (Session, error) {
	return c.OpenChatWithAvatar(ctx, peer, "")
}

// OpenChatWithAvatar is OpenChat with header metadata for the view.
// On failure the session keeps the peer but no chat id.
func (c *Controller) OpenChatWithAvatar(ctx context.Context, peer, avatar string) (Session, error) {
	const op = "open_chat"

	peer = strings.TrimSpace(peer)
	if peer == "" {
		c.mu.Lock()
		c.reportLocked(op, ErrEmptyPeer)
		c.mu.Unlock()
		return Session{}, ErrEmptyPeer
	}

	c.mu.Lock()
	c.gen++
	seq, gen := c.beginLocked()
	c.session = Session{Peer: peer, Avatar: avatar}
	c.transcript = Transcript{}
	c.view.Show(c.session)
	c.view.Render(Transcript{})
	c.mu.Unlock()

	id, err := c.backend.OpenChat(ctx, peer)

	c.mu.Lock()
	if !c.currentLocked(seq, gen) {
		c.mu.Unlock()
		c.log.Debug().Str("op", op).Str("peer", peer).Msg("discarding superseded response")
		return Session{}, ErrSuperseded
	}
	if err != nil {
		c.reportLocked(op, err)
		s := c.session
		c.mu.Unlock()
		return s, err
	}

	c.session.ChatID = id
	s := c.session
	seq, gen = c.beginLocked()
	c.mu.Unlock()

	c.log.Debug().Str("op", op).Str("peer", peer).Str("chat_id", id.String()).Msg("chat opened")

	if _, err := c.load(ctx, id, seq, gen, false); err != nil {
		return s, err
	}
	return s, nil
}

// LoadMessages fetches the history of chat id and replaces the transcript with it.
// An empty history renders the placeholder.
func (c *Controller) LoadMessages(ctx context.Context, id ChatID) ([]Message, error) {
	c.mu.Lock()
	if id.IsZero() {
		c.reportLocked("load_messages", ErrUninitializedSession)
		c.mu.Unlock()
		return nil, ErrUninitializedSession
	}
	seq, gen := c.beginLocked()
	c.mu.Unlock()

	return c.load(ctx, id, seq, gen, false)
}

// Reload reloads the open chat. Without an open chat it returns ErrUninitializedSession
// and shows nothing.
func (c *Controller) Reload(ctx context.Context) ([]Message, error) {
	return c.reload(ctx, false)
}

// reload reloads the open chat. A quiet reload logs failures without a notice.
func (c *Controller) reload(ctx context.Context, quiet bool) ([]Message, error) {
	c.mu.Lock()
	if !c.session.Open() {
		c.mu.Unlock()
		return nil, ErrUninitializedSession
	}
	id := c.session.ChatID
	seq, gen := c.beginLocked()
	c.mu.Unlock()

	return c.load(ctx, id, seq, gen, quiet)
}

func (c *Controller) load(ctx context.Context, id ChatID, seq, gen uint64, quiet bool) ([]Message, error) {
	const op = "load_messages"

	messages, err := c.backend.ListMessages(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(seq, gen) {
		c.log.Debug().Str("op", op).Str("chat_id", id.String()).Msg("discarding superseded response")
		return nil, ErrSuperseded
	}
	if err != nil {
		if quiet {
			c.log.Debug().Err(err).Str("op", op).Str("chat_id", id.String()).Msg("repeated load failure")
			return nil, err
		}
		c.reportLocked(op, err)
		return nil, err
	}

	c.transcript = buildTranscript(messages, c.currentUser)
	for _, m := range c.sent {
		if !slices.Contains(messages, m) {
			c.transcript.appendSent(m)
		}
	}
	c.sent = nil
	c.view.Render(c.transcript.clone())
	return messages, nil
}

// SendMessage posts content to the open chat and appends the echoed message.
// The input is cleared only on success.
func (c *Controller) SendMessage(ctx context.Context, content string) (Message, error) {
	const op = "send_message"

	text := strings.TrimSpace(content)

	c.mu.Lock()
	if text == "" {
		c.reportLocked(op, ErrEmptyMessage)
		c.mu.Unlock()
		return Message{}, ErrEmptyMessage
	}
	if !c.session.Open() {
		c.reportLocked(op, ErrUninitializedSession)
		c.mu.Unlock()
		return Message{}, ErrUninitializedSession
	}
	id, gen := c.session.ChatID, c.gen
	c.mu.Unlock()

	msg, err := c.backend.PostMessage(ctx, id, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.reportLocked(op, err)
		return Message{}, err
	}

	c.view.ClearInput()
	if gen != c.gen {
		c.log.Debug().Str("op", op).Str("chat_id", id.String()).Msg("session changed while sending, not appending")
		return msg, nil
	}

	c.sent = append(c.sent, msg)
	entry := c.transcript.appendSent(msg)
	c.view.Append(entry)
	return msg, nil
}

// CloseChat clears the transcript and resets the session. It never fails.
func (c *Controller) CloseChat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.seq++
	c.session = Session{}
	c.transcript = Transcript{}
	c.sent = nil
	c.view.Render(Transcript{})
	c.view.Hide()
}

func (c *Controller) beginLocked() (seq, gen uint64) {
	c.seq++
	c.sent = nil
	return c.seq, c.gen
}

func (c *Controller) currentLocked(seq, gen uint64) bool {
	return seq == c.seq && gen == c.gen
}

// reportLocked logs err and shows exactly one notice for it.
func (c *Controller) reportLocked(op string, err error) {
	kind := KindOf(err)
	c.log.Error().
		Err(err).
		Str("op", op).
		Str("kind", string(kind)).
		Str("peer", c.session.Peer).
		Str("chat_id", c.session.ChatID.String()).
		Msg("chat operation failed")
	c.view.Notice(noticeFor(op, kind))
}

func noticeFor(op string, kind Kind) string {
	switch kind {
	case KindEmptyMessage:
		return NoticeEmptyMessage
	case KindUninitialized:
		return NoticeUninitialized
	case KindEmptyPeer:
		return NoticeEmptyPeer
	}
	switch op {
	case "open_chat":
		return NoticeOpenFailed
	case "send_message":
		return NoticeSendFailed
	default:
		return NoticeLoadFailed
	}
}
