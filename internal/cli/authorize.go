package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpelias/base-repeat-twitter-bot/internal/config"
	"github.com/jpelias/base-repeat-twitter-bot/internal/session"
	"github.com/jpelias/base-repeat-twitter-bot/internal/store"
	"github.com/jpelias/base-repeat-twitter-bot/internal/twitter"
)

// NewAuthorizeCommand creates the authorize command: run the handshake
// standalone and persist the credentials, without starting the loop.
// Useful for provisioning a host before the bot's first unattended run.
func NewAuthorizeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Run the authorization handshake and store the credentials",
		Long: `Run the three-legged authorization handshake for the configured
application and persist the resulting access tokens in the bot's
database, replacing any cached pair. The loop is not started.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthorize(rootOpts, cmd)
		},
	}
	return cmd
}

func runAuthorize(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	closeLogs, err := setupLogging(cfg, opts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	defer closeLogs()

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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := sessions.Handshake(ctx)
	if err != nil {
		if errors.Is(err, session.ErrAuthorization) {
			return WrapExitError(ExitCommandError, "authorization rejected, check consumer key/secret", err)
		}
		return WrapExitError(ExitFailure, "handshake failed", err)
	}

	valid, err := client.VerifySession(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "verification call failed", err)
	}
	if !valid {
		return NewExitError(ExitFailure, "handshake completed but the session did not verify")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Authorization complete, credentials stored.")
	return nil
}

// promptVerifier is the production authorization callback: it shows the
// operator the URL and reads the PIN back.
func promptVerifier(cmd *cobra.Command) session.VerifierFunc {
	return func(ctx context.Context, url string) (string, error) {
		fmt.Fprintln(cmd.OutOrStdout(), "Access the following URL with the bot account:", url)
		fmt.Fprint(cmd.OutOrStdout(), "Enter the PIN: ")

		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read verifier: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
}
