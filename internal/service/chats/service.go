package chats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/socialchat/internal/store"
)

// Common errors for chat operations.
var (
	ErrCannotChatSelf  = errors.New("cannot open a chat with yourself")
	ErrUserNotFound    = errors.New("user not found")
	ErrChatNotFound    = errors.New("chat not found")
	ErrNotParticipant  = errors.New("not a participant of this chat")
	ErrContentRequired = errors.New("chat id and content are required")
	ErrRateLimited     = errors.New("rate limit exceeded")
)

// Options tune the chat service.
type Options struct {
	// SendRateLimit caps messages per user per minute. Zero disables the limit.
	SendRateLimit int
	// HistoryLimit caps how many of the newest messages a history request returns.
	// Zero returns the whole history.
	HistoryLimit int
	// Now overrides the clock used to stamp messages.
	Now func() time.Time
}

// Service provides direct chat business logic.
type Service struct {
	store   store.Store
	limiter *rateLimiter
	history int
	now     func() time.Time
}

// New creates a new chat service.
func New(st store.Store, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:   st,
		limiter: newRateLimiter(opts.SendRateLimit),
		history: opts.HistoryLimit,
		now:     now,
	}
}

// OpenChat returns the direct chat between userID and the named peer, creating it on first use.
func (s *Service) OpenChat(ctx context.Context, userID int64, peerUsername string) (*store.Chat, error) {
	peer, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(peerUsername))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup peer: %w", err)
	}
	if peer.ID == userID {
		return nil, ErrCannotChatSelf
	}

	chat, err := s.store.CreateDirectChat(ctx, store.DirectKey(userID, peer.ID), userID, peer.ID)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// ListMessages returns the history of a chat the user takes part in, oldest first.
func (s *Service) ListMessages(ctx context.Context, userID, chatID int64) ([]*store.Message, error) {
	if err := s.checkParticipant(ctx, userID, chatID); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, chatID, s.history)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// SendMessage stores a message from userID in the chat.
// The content is stored as given; only an all-whitespace body is rejected.
func (s *Service) SendMessage(ctx context.Context, userID, chatID int64, content string) (*store.Message, error) {
	if chatID <= 0 || strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}
	if err := s.checkParticipant(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if !s.limiter.allow(userID) {
		return nil, ErrRateLimited
	}

	sender, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup sender: %w", err)
	}

	msg := &store.Message{
		ChatID:         chatID,
		SenderID:       userID,
		SenderUsername: sender.Username,
		Body:           content,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

// ListChats lists the user's chats, most recent first.
func (s *Service) ListChats(ctx context.Context, userID int64) ([]*store.ChatSummary, error) {
	chats, err := s.store.ListChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// SearchUsers finds people the user can open a chat with. The user is excluded.
func (s *Service) SearchUsers(ctx context.Context, userID int64, query string, limit int) ([]*store.User, error) {
	fetch := 0
	if limit > 0 {
		// One extra row keeps the result full when the caller matches too.
		fetch = limit + 1
	}
	users, err := s.store.SearchUsers(ctx, strings.TrimSpace(query), fetch)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	out := make([]*store.User, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Service) checkParticipant(ctx context.Context, userID, chatID int64) error {
	if _, err := s.store.GetChatByID(ctx, chatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrChatNotFound
		}
		return fmt.Errorf("lookup chat: %w", err)
	}

	ok, err := s.store.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}
