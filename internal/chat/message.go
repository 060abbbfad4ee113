package chat

import "time"

// ChatID identifies a conversation on the backend. The zero value means no chat.
type ChatID string

// IsZero reports whether no chat is set.
func (id ChatID) IsZero() bool {
	return id == ""
}

func (id ChatID) String() string {
	return string(id)
}

// Message is a chat message as returned by the backend.
type Message struct {
	SenderUsername string
	Content        string
	// Timestamp is the backend's ISO-8601 string, kept verbatim.
	Timestamp string
}

// Time parses Timestamp. ok is false when the backend sent something unparseable.
func (m Message) Time() (t time.Time, ok bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, m.Timestamp); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Session is the state of the single chat a controller has open.
type Session struct {
	Peer string
	// Avatar is optional header metadata for the view.
	Avatar string
	ChatID ChatID
}

// Open reports whether the session holds a chat id.
func (s Session) Open() bool {
	return !s.ChatID.IsZero()
}
