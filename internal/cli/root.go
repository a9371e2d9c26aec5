// Package cli wires the bot together behind a cobra command tree:
// config loading, log sinks, the durable store, the session manager,
// and the engine, with signal-driven shutdown and meaningful exit codes.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the repeatbot CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "repeatbot",
		Short: "Keyword-watching reply bot",
		Long: `repeatbot watches a search stream for configured keywords and posts a
templated reply to each new match, exactly once, across restarts.

Matches already handled are remembered in a SQLite ledger; session
credentials from the one-time authorization handshake are cached there
too, so normal restarts need no operator interaction.`,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "bot_config.yaml", "path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "force debug logging regardless of config")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewAuthorizeCommand(opts))

	return cmd
}
