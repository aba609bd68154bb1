package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/castlebay/notedown/internal/ai"
	"github.com/castlebay/notedown/internal/ai/provider"
	"github.com/castlebay/notedown/internal/blocks"
	"github.com/castlebay/notedown/internal/config"
	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/transaction"
	"github.com/castlebay/notedown/internal/extension"
	"github.com/castlebay/notedown/internal/rules"
	"github.com/castlebay/notedown/internal/store"
	"github.com/castlebay/notedown/internal/trigger"
)

// Options configures the application.
type Options struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string

	// StorageDir overrides the configured document directory.
	StorageDir string

	// Watch enables config hot-reload.
	Watch bool
}

// Application wires the editing engine, the rule and trigger
// controllers, the AI session, and the document store together from
// one configuration.
type Application struct {
	mu sync.Mutex

	opts   Options
	cfg    *config.Config
	logger *slog.Logger
	level  *slog.LevelVar

	editor     *engine.Editor
	blocks     *blocks.Commands
	rules      *rules.Engine
	catalog    *trigger.Catalog
	menu       *trigger.Controller
	session    *ai.Session
	store      *store.Store
	extensions *extension.Host
	keymap     *config.Keymap
	watcher    *config.Watcher

	docID string
}

// New builds and wires an application.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts, level: new(slog.LevelVar)}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (a *Application) bootstrap() error {
	path := a.opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.opts.StorageDir != "" {
		cfg.Storage.Dir = a.opts.StorageDir
	}
	a.cfg = cfg

	a.logger = newLogger(cfg.Logging, a.level)

	a.editor = engine.New(
		engine.WithMaxUndoEntries(cfg.Editor.MaxUndoEntries),
		engine.WithLogger(a.logger),
	)
	a.blocks = blocks.New(a.editor)

	a.rules = rules.NewEngine(a.editor, rules.Defaults())
	a.rules.SetEnabled(cfg.Editor.AutoFormat)
	a.rules.Attach()

	prov, err := provider.New(provider.Config{
		Name:      cfg.AI.Provider,
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("ai provider: %w", err)
	}
	a.session = ai.NewSession(a.editor, prov, ai.WithLogger(a.logger))
	a.session.Attach()

	a.catalog = trigger.NewCatalog()
	for _, cmd := range trigger.Builtin(a.blocks) {
		if err := a.catalog.Register(cmd); err != nil {
			return fmt.Errorf("register command: %w", err)
		}
	}
	for _, cmd := range a.aiCommands() {
		if err := a.catalog.Register(cmd); err != nil {
			return fmt.Errorf("register command: %w", err)
		}
	}
	if cfg.Editor.SlashMenu {
		a.menu = trigger.NewController(a.editor, a.catalog)
		a.menu.Attach()
	}

	a.store, err = store.Open(cfg.Storage.Dir, a.editor.Schema(), store.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	a.extensions = extension.NewHost(a.editor, a.catalog, extension.WithLogger(a.logger))
	if dir := configSibling(path, "extensions"); dir != "" {
		if err := a.extensions.LoadDir(dir); err != nil {
			a.logger.Warn("extensions not loaded", "error", err)
		}
	}

	a.keymap, err = config.LoadKeymap(configSibling(path, "keymap.yaml"))
	if err != nil {
		return fmt.Errorf("load keymap: %w", err)
	}

	if a.opts.Watch {
		a.watcher, err = config.Watch(path, a.applyConfig, func(err error) {
			a.logger.Warn("config reload failed", "error", err)
		})
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
	}

	return nil
}

// applyConfig picks up the reloadable settings from a fresh config.
// Structural settings (storage dir, provider) need a restart.
func (a *Application) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Editor = cfg.Editor
	a.cfg.Logging = cfg.Logging
	a.cfg.AI.MaxTokens = cfg.AI.MaxTokens
	a.cfg.AI.Structured = cfg.AI.Structured
	a.level.Set(parseLevel(cfg.Logging.Level))
	a.rules.SetEnabled(cfg.Editor.AutoFormat)
	a.logger.Info("configuration reloaded")
}

// Close stops background work. The editor itself needs no teardown.
func (a *Application) Close() error {
	a.session.Stop()
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("watcher close failed", "error", err)
		}
	}
	return a.extensions.Close()
}

// Editor returns the editing engine.
func (a *Application) Editor() *engine.Editor { return a.editor }

// Blocks returns the block command library.
func (a *Application) Blocks() *blocks.Commands { return a.blocks }

// Menu returns the slash-menu controller, nil when disabled.
func (a *Application) Menu() *trigger.Controller { return a.menu }

// Catalog returns the slash command catalog.
func (a *Application) Catalog() *trigger.Catalog { return a.catalog }

// Session returns the AI suggestion session.
func (a *Application) Session() *ai.Session { return a.session }

// Store returns the document store.
func (a *Application) Store() *store.Store { return a.store }

// Config returns the active configuration.
func (a *Application) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// GenerateSuggestion starts a generation for a writing action. The
// selection-consuming actions operate on the current selection.
func (a *Application) GenerateSuggestion(action ai.Action, instruction string) error {
	a.mu.Lock()
	in := ai.PromptInput{
		Action:      action,
		Instruction: instruction,
		Structured:  a.cfg.AI.Structured,
		MaxTokens:   a.cfg.AI.MaxTokens,
	}
	a.mu.Unlock()
	return a.session.Generate(context.Background(), in)
}

// ModifySuggestion asks for a revision of the pending suggestion.
func (a *Application) ModifySuggestion(instruction string) error {
	return a.session.Modify(context.Background(), instruction)
}

// aiCommands exposes the suggestion session through the slash menu.
func (a *Application) aiCommands() []trigger.Command {
	generate := func(action ai.Action) func() error {
		return func() error {
			a.mu.Lock()
			in := ai.PromptInput{
				Action:     action,
				Structured: a.cfg.AI.Structured,
				MaxTokens:  a.cfg.AI.MaxTokens,
			}
			a.mu.Unlock()
			return a.session.Generate(context.Background(), in)
		}
	}
	return []trigger.Command{
		{
			ID: "ai-continue", Title: "Continue Writing",
			Description: "Let the assistant continue from the cursor",
			Category:    trigger.CategoryAI,
			Keywords:    []string{"write", "generate"},
			Handler:     generate(ai.ActionContinue),
		},
		{
			ID: "ai-summarize", Title: "Summarize",
			Description: "Summarize the selection",
			Category:    trigger.CategoryAI,
			Keywords:    []string{"tldr", "shorten"},
			Handler:     generate(ai.ActionSummarize),
		},
		{
			ID: "ai-improve", Title: "Improve Writing",
			Description: "Rewrite the selection more clearly",
			Category:    trigger.CategoryAI,
			Keywords:    []string{"rewrite", "fix"},
			Handler:     generate(ai.ActionImprove),
		},
	}
}

// newLogger builds the slog logger described by the logging config.
func newLogger(cfg config.LoggingConfig, level *slog.LevelVar) *slog.Logger {
	level.Set(parseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// configSibling returns a path next to the config file, or "" when the
// config path has no directory to anchor to.
func configSibling(configPath, name string) string {
	dir := filepath.Dir(configPath)
	if dir == "" || dir == "." {
		return ""
	}
	return filepath.Join(dir, name)
}

// cursorIntoDoc places the cursor inside the first block of a freshly
// loaded document.
func (a *Application) cursorIntoDoc() error {
	return a.editor.SetSelection(transaction.Cursor(1))
}
