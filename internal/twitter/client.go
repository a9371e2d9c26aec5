package twitter

import "context"

// Match is a single search result: one candidate post containing the
// watched keywords.
type Match struct {
	ID     int64
	Author string
	Text   string
}

// MaxPostLength is the platform's hard character limit per post.
// Rendered replies longer than this are never sent.
const MaxPostLength = 140

// Client is an authorized API session bound to the bot's account.
//
// Search returns results newest-first, which is the platform's native
// order; callers that need causal ordering must reverse them.
type Client interface {
	// VerifySession checks that the bound credentials are still valid.
	// Returns false (with nil error) when the platform rejects them,
	// e.g. after external revocation.
	VerifySession(ctx context.Context) (bool, error)

	// Search returns matches for the query with ids strictly greater
	// than sinceID, newest-first.
	Search(ctx context.Context, query string, sinceID int64) ([]Match, error)

	// PostReply posts text threaded as a reply to the given match id.
	PostReply(ctx context.Context, text string, inReplyToID int64) error
}

// Authorizer starts the three-legged authorization handshake.
// Implemented by API (production) and fakes (tests).
type Authorizer interface {
	// RequestAuthorization obtains a pending authorization bound to a
	// fresh request token. An error here means the application's
	// consumer key/secret were rejected - unrecoverable.
	RequestAuthorization(ctx context.Context) (Authorization, error)
}

// Authorization is a pending handshake. The operator visits URL with the
// bot account, reads back a verifier PIN, and Exchange trades it for an
// access-token pair.
type Authorization interface {
	URL() string
	Exchange(ctx context.Context, verifier string) (tokenKey, tokenSecret string, err error)
}
