// Command recall is a terminal client for browsing and chatting with a
// personal memory archive.
//
// Usage:
//
//	RECALL_TOKEN=... recall [flags]
//	GEMINI_API_KEY=... recall -local [flags]
//
// Flags:
//
//	-config string    Path to config file (default: $XDG_CONFIG_HOME/recall/config.yaml)
//	-base-url string  Backend base URL (overrides config)
//	-token string     Backend API token (overrides config and RECALL_TOKEN)
//	-state string     Path to local state file (overrides config)
//	-local            Use a local Gemini-backed assistant instead of the remote backend
//	-log string       Path to debug log file (default: no logging)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/jkowal/recall"
	"github.com/jkowal/recall/api"
	bt "github.com/jkowal/recall/bubbletea"
	"github.com/jkowal/recall/bus"
	"github.com/jkowal/recall/chat"
	"github.com/jkowal/recall/config"
	"github.com/jkowal/recall/gemini"
	"github.com/jkowal/recall/preview"
	"github.com/jkowal/recall/state"
	"github.com/jkowal/recall/toast"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "recall: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", defaultConfigPath(), "Path to config file")
		baseURL    = flag.String("base-url", "", "Backend base URL (overrides config)")
		token      = flag.String("token", "", "Backend API token (overrides config and RECALL_TOKEN)")
		statePath  = flag.String("state", "", "Path to local state file (overrides config)")
		local      = flag.Bool("local", false, "Use a local Gemini-backed assistant instead of the remote backend")
		logPath    = flag.String("log", "", "Path to debug log file")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, *baseURL, *token, *statePath)

	logger, closeLog, err := newLogger(*logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	backend, err := newBackend(ctx, cfg, *local)
	if err != nil {
		return err
	}

	store := state.NewFile(cfg.State.Path)

	events := bus.New(logger)

	queue := toast.New(logger)
	defer queue.Close()
	queue.Listen(ctx, events)

	previews := preview.New(logger)

	opts := []chat.Option{
		chat.WithLogger(logger),
		chat.WithPreviewManager(previews),
	}
	if cfg.Chat.SendTimeout > 0 {
		opts = append(opts, chat.WithSendTimeout(cfg.Chat.SendTimeout))
	}
	if cfg.Chat.NotifyRejections {
		opts = append(opts, chat.WithRejectionToasts())
	}
	controller := chat.New(backend, store, events, opts...)
	defer controller.Close()

	controller.Resume(ctx)
	_ = controller.Refresh(ctx)

	focusCh, subID := events.Subscribe(ctx)
	defer events.Unsubscribe(subID)

	m := bt.New(controller, queue, focusCh, recall.DefaultTheme())
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

// applyOverrides layers flag and environment values over the config file.
func applyOverrides(cfg *config.Config, baseURL, token, statePath string) {
	if baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	if token != "" {
		cfg.Backend.Token = token
	} else if cfg.Backend.Token == "" {
		cfg.Backend.Token = os.Getenv("RECALL_TOKEN")
	}
	if statePath != "" {
		cfg.State.Path = statePath
	}
	if cfg.State.Path == "" {
		cfg.State.Path = state.DefaultPath()
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func newBackend(ctx context.Context, cfg *config.Config, local bool) (recall.Backend, error) {
	if local {
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("-local requires a Gemini API key (gemini.api_key or GEMINI_API_KEY)")
		}
		var opts []gemini.Option
		if cfg.Gemini.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Gemini.Model))
		}
		return gemini.New(ctx, cfg.Gemini.APIKey, opts...)
	}

	if cfg.Backend.Token == "" {
		return nil, fmt.Errorf("no API token configured (backend.token, -token or RECALL_TOKEN)")
	}
	var opts []api.Option
	if cfg.Backend.BaseURL != "" {
		opts = append(opts, api.WithBaseURL(cfg.Backend.BaseURL))
	}
	return api.New(cfg.Backend.Token, opts...), nil
}

// newLogger builds a file-backed logger. Writing to stderr would corrupt
// the TUI, so without -log everything is discarded.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "recall", "config.yaml")
}
