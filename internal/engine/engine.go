package engine

import (
	"context"
	"log/slog"

	"github.com/jpelias/base-repeat-twitter-bot/internal/config"
	"github.com/jpelias/base-repeat-twitter-bot/internal/session"
	"github.com/jpelias/base-repeat-twitter-bot/internal/store"
)

// Engine composes the durable store, the session manager, and the loop,
// and owns the startup sequence: establish a verified session, then hand
// control to the loop until the context is cancelled.
//
// The engine holds the process's only store handle; the loop and the
// session manager reach storage exclusively through it. Closing the
// store (and flushing logs) on exit belongs to the caller, which runs
// it on every exit path.
type Engine struct {
	store    *store.Store
	sessions *session.Manager
	cfg      *config.Config
	tokens   RunTokenGenerator
	loopOpts []LoopOption
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunTokenGenerator overrides the run-token source (tests).
func WithRunTokenGenerator(gen RunTokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = gen
	}
}

// WithLoopOptions forwards options to the loop the engine constructs.
func WithLoopOptions(opts ...LoopOption) Option {
	return func(e *Engine) {
		e.loopOpts = opts
	}
}

// New creates an Engine over an opened store and a session manager.
func New(st *store.Store, sessions *session.Manager, cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		sessions: sessions,
		cfg:      cfg,
		tokens:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run establishes the session and drives the loop until ctx is
// cancelled. Session errors pass through unwrapped so the caller can
// map them to exit codes (session.ErrAuthorization is fatal,
// session.ErrVerification is a clean halt).
func (e *Engine) Run(ctx context.Context) error {
	run := e.tokens.Generate()

	client, err := e.sessions.Establish(ctx)
	if err != nil {
		return err
	}
	slog.Info("bot connected", "run", run, "account", e.cfg.BotName)

	loop := NewLoop(client, e.store, e.cfg, e.loopOpts...)
	return loop.Run(ctx)
}
