package chat

import "time"

// Placeholder is rendered instead of entries when a chat has no messages.
const Placeholder = "No messages yet."

// DisplayLayout formats entry timestamps, e.g. "Jan 2, 2006, 3:04 PM".
const DisplayLayout = "Jan 2, 2006, 3:04 PM"

// Direction tells whether the current user sent an entry.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Entry is one rendered message in the transcript.
type Entry struct {
	Message
	Direction Direction
}

// When returns the display timestamp in loc, or the raw timestamp if it cannot be parsed.
func (e Entry) When(loc *time.Location) string {
	t, ok := e.Time()
	if !ok {
		return e.Timestamp
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DisplayLayout)
}

// Transcript is the rendered state of the open chat.
// A transcript never holds entries and the placeholder at the same time.
type Transcript struct {
	Entries     []Entry
	Placeholder bool
}

// Empty reports whether nothing at all is rendered.
func (t Transcript) Empty() bool {
	return len(t.Entries) == 0 && !t.Placeholder
}

// clone returns a copy safe to hand to views.
func (t Transcript) clone() Transcript {
	out := Transcript{Placeholder: t.Placeholder}
	if len(t.Entries) > 0 {
		out.Entries = make([]Entry, len(t.Entries))
		copy(out.Entries, t.Entries)
	}
	return out
}

// buildTranscript replaces the whole transcript from a backend listing.
func buildTranscript(messages []Message, currentUser string) Transcript {
	if len(messages) == 0 {
		return Transcript{Placeholder: true}
	}
	entries := make([]Entry, 0, len(messages))
	for _, m := range messages {
		dir := DirectionReceived
		if currentUser != "" && m.SenderUsername == currentUser {
			dir = DirectionSent
		}
		entries = append(entries, Entry{Message: m, Direction: dir})
	}
	return Transcript{Entries: entries}
}

// appendSent adds a message the current user just sent.
func (t *Transcript) appendSent(m Message) Entry {
	e := Entry{Message: m, Direction: DirectionSent}
	t.Placeholder = false
	t.Entries = append(t.Entries, e)
	return e
}
