package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/longkey1/llmchat/internal/chat"
	"github.com/longkey1/llmchat/internal/config"
	"github.com/longkey1/llmchat/internal/credential"
	"github.com/longkey1/llmchat/internal/gemini"
	"github.com/longkey1/llmchat/internal/logger"
	"github.com/longkey1/llmchat/internal/persona"
)

// widget bundles everything a command needs to run a conversation
type widget struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *credential.Store
	client *gemini.Client
	conv   *chat.Conversation
}

// loadConfig loads the configuration and applies the selected persona
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg, err = persona.Resolve(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading persona: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logger.New(os.Stderr, level, cfg.Log.Format)
}

// openStore opens the configured credential backend
func openStore(cfg *config.Config) (*credential.Store, error) {
	kv, err := credential.Open(cfg.Credential.Backend, cfg.Credential.Path)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}
	return credential.NewStore(kv), nil
}

// newWidget wires config, logger, credential store, client and conversation.
// The caller must call close.
func newWidget(opts ...chat.Option) (*widget, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := newLogger(cfg)

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	client := gemini.NewClient(cfg.BaseURL, gemini.WithLogger(log))
	opts = append([]chat.Option{chat.WithLogger(log)}, opts...)
	conv := chat.New(*cfg, client, store, opts...)

	return &widget{
		cfg:    cfg,
		log:    log,
		store:  store,
		client: client,
		conv:   conv,
	}, nil
}

func (w *widget) close() {
	if err := w.store.Close(); err != nil {
		w.log.Warn("closing credential store", "error", err)
	}
}
