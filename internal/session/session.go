// Package session produces a verified, authorized API session, reusing
// persisted credentials when possible and falling back to the
// three-legged authorization handshake when not.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpelias/base-repeat-twitter-bot/internal/store"
	"github.com/jpelias/base-repeat-twitter-bot/internal/twitter"
)

// State tracks the manager through the authorization lifecycle.
//
// NoCredentials → Authorizing → Authorized → Verified, with a
// Verified → Authorizing edge when cached credentials fail verification,
// and Failed terminal from Authorizing (rejected consumer pair) or from
// a second verification failure.
type State string

const (
	StateNoCredentials State = "NO_CREDENTIALS"
	StateAuthorizing   State = "AUTHORIZING"
	StateAuthorized    State = "AUTHORIZED"
	StateVerified      State = "VERIFIED"
	StateFailed        State = "FAILED"
)

// ErrAuthorization means the application's consumer key/secret were
// rejected during the handshake. Unrecoverable: the process must exit
// non-zero, no further progress is possible.
var ErrAuthorization = errors.New("authorization rejected")

// ErrVerification means credentials could not be verified even after a
// re-run of the handshake. The loop must not start; shutdown is clean.
var ErrVerification = errors.New("session verification failed")

// VerifierFunc presents an authorization URL to an operator and returns
// the verifier code. Production prompts interactively; tests script it.
type VerifierFunc func(ctx context.Context, url string) (string, error)

// Factory binds an access-token pair to a Client.
// Satisfied by (*twitter.API).Session.
type Factory func(tokenKey, tokenSecret string) twitter.Client

// Manager obtains and validates an authorized API session, using the
// store to cache credentials across restarts.
type Manager struct {
	store      *store.Store
	authorizer twitter.Authorizer
	session    Factory
	verifier   VerifierFunc
	state      State
}

// New creates a Manager. verifier supplies the operator-facing half of
// the handshake.
func New(st *store.Store, authorizer twitter.Authorizer, session Factory, verifier VerifierFunc) *Manager {
	return &Manager{
		store:      st,
		authorizer: authorizer,
		session:    session,
		verifier:   verifier,
		state:      StateNoCredentials,
	}
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// Establish produces a verified Client.
//
// Persisted credentials are reused without re-running the handshake.
// When absent, the handshake runs and the resulting pair is persisted.
// If cache-sourced credentials fail verification (e.g. externally
// revoked) the handshake is re-run exactly once; a second failure is
// ErrVerification.
func (m *Manager) Establish(ctx context.Context) (twitter.Client, error) {
	creds, cached, err := m.store.LoadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	var client twitter.Client
	if cached {
		slog.Debug("reusing persisted credentials")
		m.state = StateAuthorized
		client = m.session(creds.TokenKey, creds.TokenSecret)
	} else {
		slog.Debug("no persisted credentials, starting handshake")
		client, err = m.Handshake(ctx)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("verifying credentials")
	if m.verify(ctx, client) {
		m.state = StateVerified
		return client, nil
	}

	if cached {
		// Cached pair was revoked out from under us; one fresh handshake
		slog.Warn("persisted credentials rejected, re-running handshake")
		client, err = m.Handshake(ctx)
		if err != nil {
			return nil, err
		}
		if m.verify(ctx, client) {
			m.state = StateVerified
			return client, nil
		}
	}

	m.state = StateFailed
	return nil, ErrVerification
}

// Handshake runs the three-legged authorization flow unconditionally
// and persists the resulting credential pair, replacing any cached one.
// Establish calls it as needed; the authorize command calls it directly.
func (m *Manager) Handshake(ctx context.Context) (twitter.Client, error) {
	m.state = StateAuthorizing

	auth, err := m.authorizer.RequestAuthorization(ctx)
	if err != nil {
		m.state = StateFailed
		return nil, fmt.Errorf("%w: %v", ErrAuthorization, err)
	}

	verifier, err := m.verifier(ctx, auth.URL())
	if err != nil {
		m.state = StateFailed
		return nil, fmt.Errorf("authorization callback: %w", err)
	}

	tokenKey, tokenSecret, err := auth.Exchange(ctx, verifier)
	if err != nil {
		m.state = StateFailed
		return nil, fmt.Errorf("%w: %v", ErrAuthorization, err)
	}

	creds := store.Credentials{TokenKey: tokenKey, TokenSecret: tokenSecret}
	if err := m.store.SaveCredentials(ctx, creds); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}

	m.state = StateAuthorized
	return m.session(tokenKey, tokenSecret), nil
}

func (m *Manager) verify(ctx context.Context, client twitter.Client) bool {
	valid, err := client.VerifySession(ctx)
	if err != nil {
		slog.Warn("verify session", "error", err)
		return false
	}
	return valid
}
