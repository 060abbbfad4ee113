package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	AvatarURL    string
	CreatedAt    time.Time
}

// Chat is a direct conversation between two users.
type Chat struct {
	ID        int64
	DirectKey string // "dm:{minUserID}:{maxUserID}"
	CreatedAt time.Time
}

// ChatSummary is a chat as listed for one of its participants.
type ChatSummary struct {
	ChatID       int64
	PeerID       int64
	PeerUsername string
	PeerAvatar   string
	CreatedAt    time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID             int64
	ChatID         int64
	SenderID       int64
	SenderUsername string
	Body           string
	CreatedAt      time.Time
}

// DirectKey returns the dedup key of the chat between two users, independent of order.
func DirectKey(userA, userB int64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("dm:%d:%d", userA, userB)
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SearchUsers finds users whose username contains query, ordered by username.
	SearchUsers(ctx context.Context, query string, limit int) ([]*User, error)
}

// ChatStore handles chat persistence.
type ChatStore interface {
	// CreateDirectChat returns the chat for directKey, creating it with both users
	// as participants when it does not exist yet.
	CreateDirectChat(ctx context.Context, directKey string, user1ID, user2ID int64) (*Chat, error)

	// GetChatByID retrieves a chat by ID.
	GetChatByID(ctx context.Context, id int64) (*Chat, error)

	// IsParticipant checks whether the user takes part in the chat.
	IsParticipant(ctx context.Context, chatID, userID int64) (bool, error)

	// ListChats lists the chats of a user, most recent first.
	ListChats(ctx context.Context, userID int64) ([]*ChatSummary, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages returns up to limit of the newest messages of a chat, oldest first.
	// A non-positive limit returns the whole history.
	ListMessages(ctx context.Context, chatID int64, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChatStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
