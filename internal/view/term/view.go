// Package term renders a chat session on a line-oriented terminal.
package term

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/socialchat/internal/chat"
)

// View implements chat.View by writing lines to out and notices to errOut.
// The draft stands in for the input box: it survives a failed send and is
// cleared after a successful one.
type View struct {
	out    io.Writer
	errOut io.Writer
	loc    *time.Location

	mu    sync.Mutex
	draft string
	shown bool
}

var _ chat.View = (*View)(nil)

// New creates a view. A nil loc renders timestamps in time.Local.
func New(out, errOut io.Writer, loc *time.Location) *View {
	if loc == nil {
		loc = time.Local
	}
	return &View{out: out, errOut: errOut, loc: loc}
}

// SetDraft records the text about to be sent.
func (v *View) SetDraft(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draft = s
}

// Draft returns the pending input.
func (v *View) Draft() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

// Visible reports whether a chat is on screen.
func (v *View) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shown
}

func (v *View) Show(s chat.Session) {
	v.mu.Lock()
	v.shown = true
	v.mu.Unlock()

	header := "== Chat with " + s.Peer
	if s.Avatar != "" {
		header += " (" + s.Avatar + ")"
	}
	fmt.Fprintln(v.out, header+" ==")
}

func (v *View) Hide() {
	v.mu.Lock()
	v.shown = false
	v.mu.Unlock()

	fmt.Fprintln(v.out, "== Chat closed ==")
}

func (v *View) Render(t chat.Transcript) {
	if t.Placeholder {
		fmt.Fprintln(v.out, "   "+chat.Placeholder)
		return
	}
	for _, e := range t.Entries {
		v.writeEntry(e)
	}
}

func (v *View) Append(e chat.Entry) {
	v.writeEntry(e)
}

func (v *View) Notice(text string) {
	fmt.Fprintln(v.errOut, "! "+text)
}

func (v *View) ClearInput() {
	v.SetDraft("")
}

// writeEntry prints "> [time] sender: content" for sent entries and "<" for received ones.
func (v *View) writeEntry(e chat.Entry) {
	marker := "<"
	if e.Direction == chat.DirectionSent {
		marker = ">"
	}
	content := strings.ReplaceAll(e.Content, "\n", "\n    ")
	fmt.Fprintf(v.out, "%s [%s] %s: %s\n", marker, e.When(v.loc), e.SenderUsername, content)
}
