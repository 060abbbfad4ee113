package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/socialchat/internal/chat"
	"github.com/vovakirdan/socialchat/internal/page"
	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/view/term"
)

const helpText = `Commands:
  /open <user>   open the chat with a user
  /chats         list your conversations
  /find <text>   search users by name
  /reload        reload the open chat
  /retry         resend the last unsent message
  /close         close the open chat
  /quit          exit
Anything else is sent to the open chat.`

// chatLister returns the conversations shown on the messages page.
type chatLister func(ctx context.Context) ([]page.ChatLink, error)

// userFinder searches users by name.
type userFinder func(ctx context.Context, query string) ([]proto.UserItem, error)

// shell turns input lines into controller calls. Failures are already shown by the
// view as notices, so the shell only reports its own usage errors.
type shell struct {
	ctrl  *chat.Controller
	view  *term.View
	out   io.Writer
	chats chatLister
	find  userFinder
}

// run consumes lines until /quit, EOF or ctx is done.
func (s *shell) run(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := s.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (s *shell) handle(ctx context.Context, line string) (quit bool) {
	if !strings.HasPrefix(line, "/") {
		s.send(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(s.out, helpText)
	case "/open":
		s.open(ctx, arg)
	case "/chats":
		s.listChats(ctx)
	case "/find":
		s.findUsers(ctx, arg)
	case "/reload":
		_, _ = s.ctrl.Reload(ctx)
	case "/retry":
		s.send(ctx, s.view.Draft())
	case "/close":
		s.ctrl.CloseChat()
	default:
		fmt.Fprintf(s.out, "unknown command %s, try /help\n", cmd)
	}
	return false
}

func (s *shell) send(ctx context.Context, content string) {
	s.view.SetDraft(content)
	_, _ = s.ctrl.SendMessage(ctx, content)
}

// open uses the avatar listed on the messages page when the peer is known there.
func (s *shell) open(ctx context.Context, peer string) {
	avatar := ""
	if links, err := s.chats(ctx); err == nil {
		for _, l := range links {
			if l.Peer == peer {
				avatar = l.Avatar
				break
			}
		}
	}
	_, _ = s.ctrl.OpenChatWithAvatar(ctx, peer, avatar)
}

func (s *shell) listChats(ctx context.Context) {
	links, err := s.chats(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "could not list chats: %v\n", err)
		return
	}
	if len(links) == 0 {
		fmt.Fprintln(s.out, "No conversations yet.")
		return
	}
	for _, l := range links {
		fmt.Fprintf(s.out, "  %s (chat %s)\n", l.Peer, l.ChatID)
	}
}

func (s *shell) findUsers(ctx context.Context, query string) {
	users, err := s.find(ctx, query)
	if err != nil {
		fmt.Fprintf(s.out, "search failed: %v\n", err)
		return
	}
	if len(users) == 0 {
		fmt.Fprintln(s.out, "No users found.")
		return
	}
	for _, u := range users {
		fmt.Fprintf(s.out, "  %s\n", u.Username)
	}
}
