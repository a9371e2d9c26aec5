package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpelias/base-repeat-twitter-bot/internal/session"
	"github.com/jpelias/base-repeat-twitter-bot/internal/store"
	"github.com/jpelias/base-repeat-twitter-bot/internal/twitter"
)

// rejectingAuthorizer fails the handshake like a platform rejecting the
// application's consumer pair.
type rejectingAuthorizer struct{}

func (rejectingAuthorizer) RequestAuthorization(ctx context.Context) (twitter.Authorization, error) {
	return nil, errors.New("401 unauthorized")
}

func TestEngine_RunWithPersistedCredentials(t *testing.T) {
	st := openTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, st.SaveCredentials(ctx, store.Credentials{TokenKey: "tk", TokenSecret: "ts"}))

	client := &scriptedClient{
		cancel: cancel,
		script: []searchResult{
			{matches: []twitter.Match{{ID: 3, Author: "bob", Text: "yo"}}},
		},
	}

	// The factory must receive the persisted pair; the handshake must
	// not run at all
	var boundKey string
	factory := func(key, secret string) twitter.Client {
		boundKey = key
		return client
	}
	sessions := session.New(st, rejectingAuthorizer{}, factory,
		func(ctx context.Context, url string) (string, error) {
			t.Fatal("verifier callback must not be invoked with persisted credentials")
			return "", nil
		})

	eng := New(st, sessions, testConfig(),
		WithRunTokenGenerator(NewFixedGenerator("run-1")))

	err := eng.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, "tk", boundKey)
	assert.Equal(t, []int64{3}, client.replies)
}

func TestEngine_AuthorizationFailurePassesThrough(t *testing.T) {
	st := openTestStore(t)

	factory := func(key, secret string) twitter.Client {
		t.Fatal("no session may be constructed without authorization")
		return nil
	}
	sessions := session.New(st, rejectingAuthorizer{}, factory,
		func(ctx context.Context, url string) (string, error) { return "123456", nil })

	eng := New(st, sessions, testConfig(),
		WithRunTokenGenerator(NewFixedGenerator("run-1")))

	err := eng.Run(context.Background())
	require.ErrorIs(t, err, session.ErrAuthorization)
}

func TestEngine_VerificationFailureHaltsWithoutPolling(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveCredentials(ctx, store.Credentials{TokenKey: "stale", TokenSecret: "stale"}))

	searched := false
	factory := func(key, secret string) twitter.Client {
		return &unverifiableClient{searched: &searched}
	}
	// Re-handshake also yields an unverifiable session
	auth := &staticAuthorizer{tokenKey: "fresh", tokenSecret: "fresh"}
	sessions := session.New(st, auth, factory,
		func(ctx context.Context, url string) (string, error) { return "123456", nil })

	eng := New(st, sessions, testConfig(),
		WithRunTokenGenerator(NewFixedGenerator("run-1")))

	err := eng.Run(ctx)
	require.ErrorIs(t, err, session.ErrVerification)
	assert.False(t, searched, "no polling may occur after a verification failure")
}

// unverifiableClient always fails verification.
type unverifiableClient struct {
	searched *bool
}

func (c *unverifiableClient) VerifySession(ctx context.Context) (bool, error) {
	return false, nil
}

func (c *unverifiableClient) Search(ctx context.Context, query string, sinceID int64) ([]twitter.Match, error) {
	*c.searched = true
	return nil, nil
}

func (c *unverifiableClient) PostReply(ctx context.Context, text string, inReplyToID int64) error {
	return nil
}

// staticAuthorizer completes the handshake with a fixed token pair.
type staticAuthorizer struct {
	tokenKey    string
	tokenSecret string
}

func (a *staticAuthorizer) RequestAuthorization(ctx context.Context) (twitter.Authorization, error) {
	return &staticAuthorization{a: a}, nil
}

type staticAuthorization struct {
	a *staticAuthorizer
}

func (s *staticAuthorization) URL() string { return "https://example.com/auth" }

func (s *staticAuthorization) Exchange(ctx context.Context, verifier string) (string, string, error) {
	return s.a.tokenKey, s.a.tokenSecret, nil
}
