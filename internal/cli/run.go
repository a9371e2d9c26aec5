package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpelias/base-repeat-twitter-bot/internal/config"
	"github.com/jpelias/base-repeat-twitter-bot/internal/engine"
	"github.com/jpelias/base-repeat-twitter-bot/internal/retry"
	"github.com/jpelias/base-repeat-twitter-bot/internal/session"
	"github.com/jpelias/base-repeat-twitter-bot/internal/store"
	"github.com/jpelias/base-repeat-twitter-bot/internal/twitter"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// SearchBackoff bounds the loop's search-retry path with an
	// exponential backoff instead of immediate retry.
	SearchBackoff bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot's poll-filter-reply loop",
		Long: `Start the bot: open the ledger database, establish an authorized
session (running the one-time handshake if no credentials are cached),
and poll the search stream until interrupted.

Example:
  repeatbot run --config ./bot_config.yaml
  repeatbot run -c /etc/repeatbot/bot_config.yaml --search-backoff`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.SearchBackoff, "search-backoff", false,
		"apply exponential backoff between failed search attempts")

	return cmd
}

func runBot(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	closeLogs, err := setupLogging(cfg, opts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	// Deferred before the store close so it runs after: store first,
	// then log sinks, on every exit path
	defer func() {
		if flushErr := closeLogs(); flushErr != nil {
			// Sinks are gone; stderr is all that's left
			os.Stderr.WriteString("error closing log sink: " + flushErr.Error() + "\n")
		}
	}()

	slog.Info("opening database", "path", cfg.DatabasePath)
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	api := twitter.NewAPI(cfg.ConsumerKey, cfg.ConsumerSecret)
	sessions := session.New(st, api, api.Session, promptVerifier(cmd))

	var engOpts []engine.Option
	if opts.SearchBackoff {
		engOpts = append(engOpts, engine.WithLoopOptions(
			engine.WithSearchRetryPolicy(retry.DefaultBackoff())))
	}
	eng := engine.New(st, sessions, cfg, engOpts...)

	// Signal handling for graceful shutdown: the loop stops at its next
	// iteration boundary, never mid-iteration
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	err = eng.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		slog.Info("bot disconnected")
		return nil
	case errors.Is(err, session.ErrAuthorization):
		return WrapExitError(ExitCommandError, "authorization rejected, check consumer key/secret", err)
	case errors.Is(err, session.ErrVerification):
		return WrapExitError(ExitFailure, "authentication failure", err)
	default:
		return WrapExitError(ExitFailure, "engine error", err)
	}
}
