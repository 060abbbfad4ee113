// Command smoke exercises a running backend end to end: it registers two users,
// opens their chat, sends a message and checks that the peer reads it back.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/socialchat/internal/backend"
	"github.com/vovakirdan/socialchat/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Printf("smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "http://localhost:8080", "backend base URL")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	suffix := utils.NewID()[:8]
	sender, senderName, err := register(ctx, *addr, "smoke_a_"+suffix)
	if err != nil {
		return err
	}
	receiver, receiverName, err := register(ctx, *addr, "smoke_b_"+suffix)
	if err != nil {
		return err
	}

	chatID, err := sender.OpenChat(ctx, receiverName)
	if err != nil {
		return fmt.Errorf("open chat: %w", err)
	}
	log.Printf("opened chat %s between %s and %s", chatID, senderName, receiverName)

	echo, err := sender.PostMessage(ctx, chatID, *text)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	log.Printf("sent at %s", echo.Timestamp)

	peerChatID, err := receiver.OpenChat(ctx, senderName)
	if err != nil {
		return fmt.Errorf("peer open chat: %w", err)
	}
	if peerChatID != chatID {
		return fmt.Errorf("peer got chat %s, want %s", peerChatID, chatID)
	}

	msgs, err := receiver.ListMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) != 1 || msgs[0].Content != *text || msgs[0].SenderUsername != senderName {
		return fmt.Errorf("unexpected history: %+v", msgs)
	}

	log.Printf("smoke test passed")
	return nil
}

func register(ctx context.Context, addr, name string) (*backend.Client, string, error) {
	client, err := backend.New(backend.Config{BaseURL: addr})
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Register(ctx, name, "smoke-password")
	if err != nil {
		return nil, "", fmt.Errorf("register %s: %w", name, err)
	}
	return client, resp.Username, nil
}
