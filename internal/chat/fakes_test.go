package chat

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	mu    sync.Mutex
	opens []string
	lists []ChatID
	posts []string

	openFn func(ctx context.Context, peer string) (ChatID, error)
	listFn func(ctx context.Context, id ChatID) ([]Message, error)
	postFn func(ctx context.Context, id ChatID, content string) (Message, error)
}

func (f *fakeBackend) OpenChat(ctx context.Context, peer string) (ChatID, error) {
	f.mu.Lock()
	f.opens = append(f.opens, peer)
	fn := f.openFn
	f.mu.Unlock()
	if fn == nil {
		return "1", nil
	}
	return fn(ctx, peer)
}

func (f *fakeBackend) ListMessages(ctx context.Context, id ChatID) ([]Message, error) {
	f.mu.Lock()
	f.lists = append(f.lists, id)
	fn := f.listFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, id)
}

func (f *fakeBackend) PostMessage(ctx context.Context, id ChatID, content string) (Message, error) {
	f.mu.Lock()
	f.posts = append(f.posts, content)
	fn := f.postFn
	f.mu.Unlock()
	if fn == nil {
		return Message{SenderUsername: "me", Content: content, Timestamp: "2024-01-01T00:00:00Z"}, nil
	}
	return fn(ctx, id, content)
}

func (f *fakeBackend) counts() (opens, lists, posts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opens), len(f.lists), len(f.posts)
}

func (f *fakeBackend) listedIDs() []ChatID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChatID(nil), f.lists...)
}

// recordingView captures every render call. input simulates the message field.
type recordingView struct {
	mu       sync.Mutex
	shown    []Session
	hidden   int
	renders  []Transcript
	appended []Entry
	notices  []string
	input    string
}

func (v *recordingView) Show(s Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shown = append(v.shown, s)
}

func (v *recordingView) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden++
}

func (v *recordingView) Render(t Transcript) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders = append(v.renders, t)
}

func (v *recordingView) Append(e Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.appended = append(v.appended, e)
}

func (v *recordingView) Notice(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, text)
}

func (v *recordingView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.input = ""
}

func (v *recordingView) noticeList() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.notices...)
}

func (v *recordingView) inputValue() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.input
}

func newTestController(t *testing.T) (*Controller, *fakeBackend, *recordingView) {
	t.Helper()
	backend := &fakeBackend{}
	view := &recordingView{}
	return New(backend, view, WithCurrentUser("alice")), backend, view
}
