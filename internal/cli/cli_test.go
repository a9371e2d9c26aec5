package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: ExitSuccess},
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "exit error", err: NewExitError(ExitCommandError, "bad config"), want: ExitCommandError},
		{name: "wrapped exit error", err: fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "bad config")), want: ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := WrapExitError(ExitFailure, "outer", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "outer")
	assert.Contains(t, err.Error(), "inner")
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "authorize")
}

func executeCommand(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRun_MissingConfigFileIsCommandError(t *testing.T) {
	err := executeCommand(t, "run", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_IncompleteConfigIsCommandError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.yaml")
	// consumer_secret intentionally absent
	require.NoError(t, os.WriteFile(path, []byte(`
consumer_key: ck
database_path: bot.db
log_path: bot.log
bot_name: repeatbot
message: hi
keywords: "#golang"
poll_interval_seconds: 10
`), 0o644))

	err := executeCommand(t, "run", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "consumer_secret")
}

func TestAuthorize_MissingConfigFileIsCommandError(t *testing.T) {
	err := executeCommand(t, "authorize", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPromptVerifier_ReadsTrimmedPIN(t *testing.T) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetIn(bytes.NewBufferString("  123456  \n"))

	verifier := promptVerifier(cmd)
	pin, err := verifier(context.Background(), "https://example.com/auth")
	require.NoError(t, err)

	assert.Equal(t, "123456", pin)
	assert.Contains(t, out.String(), "https://example.com/auth")
	assert.Contains(t, out.String(), "Enter the PIN")
}
