package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/socialchat/internal/backend"
	"github.com/vovakirdan/socialchat/internal/chat"
	"github.com/vovakirdan/socialchat/internal/config"
	"github.com/vovakirdan/socialchat/internal/log"
	"github.com/vovakirdan/socialchat/internal/page"
	"github.com/vovakirdan/socialchat/internal/view/term"
)

var (
	configPath   string
	baseURL      string
	username     string
	password     string
	peer         string
	pollInterval time.Duration
)

// rootCmd opens the interactive chat widget.
var rootCmd = &cobra.Command{
	Use:   "socialchat",
	Short: "Chat with other users of a socialchat backend",
	Long: `Log in to a socialchat backend and chat from the terminal.

Type /help once connected for the list of commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

// registerCmd creates an account.
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the backend",
	RunE:  runRegister,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend base URL")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "Username")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Password (or SOCIALCHAT_CLIENT_PASSWORD)")
	rootCmd.Flags().StringVar(&peer, "peer", "", "Open the chat with this user right away")
	rootCmd.Flags().DurationVar(&pollInterval, "poll", 0, "Reload the open chat at this interval (0 disables)")

	rootCmd.AddCommand(registerCmd)
}

func loadClientConfig() (config.Config, *zerolog.Logger, error) {
	cfg, _, err := config.LoadClient(log.Nop(), configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Client.UpdateFrom(config.ClientConfig{
		BaseURL:      baseURL,
		Username:     username,
		Password:     password,
		PollInterval: pollInterval,
	})
	if cfg.Client.Username == "" || cfg.Client.Password == "" {
		return cfg, nil, errors.New("username and password are required")
	}
	return cfg, log.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stderr), nil
}

func newClient(cfg config.Config, logger *zerolog.Logger) (*backend.Client, error) {
	return backend.New(backend.Config{
		BaseURL:  cfg.Client.BaseURL,
		PagePath: cfg.Client.PagePath,
		Timeout:  cfg.Client.RequestTimeout,
		Logger:   logger,
	})
}

func runRegister(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadClientConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	resp, err := client.Register(cmd.Context(), cfg.Client.Username, cfg.Client.Password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", resp.Username)
	return nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadClientConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := client.Login(ctx, cfg.Client.Username, cfg.Client.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	pages, ok := client.Tokens().(*backend.PageSource)
	if !ok {
		return errors.New("client has no page source")
	}
	p, err := pages.Page(ctx)
	if err != nil {
		return fmt.Errorf("load messages page: %w", err)
	}

	out := cmd.OutOrStdout()
	view := term.New(out, cmd.ErrOrStderr(), time.Local)
	ctrl := chat.New(client, view, chat.WithLogger(logger), chat.WithCurrentUser(p.CurrentUser))

	sh := &shell{
		ctrl: ctrl,
		view: view,
		out:  out,
		chats: func(ctx context.Context) ([]page.ChatLink, error) {
			pages.Invalidate()
			fresh, err := pages.Page(ctx)
			if err != nil {
				return nil, err
			}
			return fresh.Chats, nil
		},
		find: client.SearchUsers,
	}

	fmt.Fprintf(out, "Logged in as %s. Type /help for commands.\n", p.CurrentUser)
	if peer != "" {
		sh.open(ctx, peer)
	}

	g, gctx := errgroup.WithContext(ctx)
	lines := readLines(gctx, cmd.InOrStdin())

	g.Go(func() error {
		defer stop()
		return sh.run(gctx, lines)
	})
	g.Go(func() error {
		return chat.NewPoller(ctrl, cfg.Client.PollInterval).Run(gctx)
	})

	return g.Wait()
}

// readLines feeds in line by line. The reader goroutine ends with the input or
// once ctx is done and the next line is read.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
