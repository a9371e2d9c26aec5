package engine

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/jpelias/base-repeat-twitter-bot/internal/config"
	"github.com/jpelias/base-repeat-twitter-bot/internal/retry"
	"github.com/jpelias/base-repeat-twitter-bot/internal/store"
	"github.com/jpelias/base-repeat-twitter-bot/internal/twitter"
)

// Ledger is the store surface the loop writes through.
// Implemented by *store.Store; tests substitute failing fakes.
type Ledger interface {
	LastMatchID(ctx context.Context) (int64, error)
	AppendMatch(ctx context.Context, matchID int64, author, text string, observedAt time.Time) error
}

var _ Ledger = (*store.Store)(nil)

// Loop is the poll-filter-reply control loop.
//
// Single-threaded: all state mutation happens on the goroutine running
// Run. The cursor is recomputed from the ledger at startup and then
// advanced monotonically in memory.
type Loop struct {
	client   twitter.Client
	ledger   Ledger
	keywords string
	message  string
	noReply  config.AccountSet

	limiter     *rate.Limiter
	searchDelay retry.Policy
	now         func() time.Time

	lastSeenID int64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSearchRetryPolicy sets the delay policy applied between failed
// search attempts. The default is retry.Immediate: the loop's
// deliberate unbounded-immediate-retry behavior, exposed as a hook so
// deployments can bound it without changing loop semantics.
func WithSearchRetryPolicy(p retry.Policy) LoopOption {
	return func(l *Loop) {
		l.searchDelay = p
	}
}

// WithNow overrides the wall clock used for ledger timestamps.
// Used for deterministic tests.
func WithNow(now func() time.Time) LoopOption {
	return func(l *Loop) {
		l.now = now
	}
}

// NewLoop creates a Loop over an authorized client and the ledger.
// Pacing comes from cfg.PollInterval: the limiter grants one poll per
// interval, and waiting on it is cancellable.
func NewLoop(client twitter.Client, ledger Ledger, cfg *config.Config, opts ...LoopOption) *Loop {
	l := &Loop{
		client:      client,
		ledger:      ledger,
		keywords:    cfg.Keywords,
		message:     cfg.Message,
		noReply:     cfg.NoReplySet(),
		limiter:     rate.NewLimiter(rate.Every(cfg.PollInterval()), 1),
		searchDelay: retry.Immediate{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LastSeenID returns the loop's current cursor.
// Used for testing and introspection.
func (l *Loop) LastSeenID() int64 {
	return l.lastSeenID
}

// Run executes the loop until ctx is cancelled. Cancellation is
// observed at iteration boundaries and during the pacing wait; an
// in-flight iteration completes before Run returns.
//
// Returns ctx.Err() on cancellation, or a store error if the startup
// cursor cannot be read. Search and reply failures never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	cursor, err := l.ledger.LastMatchID(ctx)
	if err != nil {
		return err
	}
	l.lastSeenID = cursor

	slog.Info("waiting for keywords", "query", l.keywords, "since_id", cursor)

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		matches, err := l.client.Search(ctx, l.keywords, l.lastSeenID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Sole automatic-retry path: unbounded, no cursor advance,
			// no pacing sleep. The delay policy defaults to immediate.
			attempt++
			slog.Error("search failed, retrying", "error", err, "attempt", attempt)
			if d := l.searchDelay.Delay(attempt); d > 0 {
				if err := sleepCtx(ctx, d); err != nil {
					return err
				}
			}
			continue
		}
		attempt = 0

		l.processBatch(ctx, matches)

		if err := l.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// processBatch classifies and handles one fetch's results.
// The platform returns matches newest-first; they are processed in
// reverse so replies preserve causal order and the cursor advances
// monotonically.
func (l *Loop) processBatch(ctx context.Context, matches []twitter.Match) {
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]

		if l.noReply.Contains(m.Author) {
			slog.Debug("ignoring no-reply account", "author", m.Author, "id", m.ID)
			if !l.record(ctx, m) {
				return
			}
			continue
		}

		reply := "@" + m.Author + " " + l.message
		if utf8.RuneCountInString(reply) > twitter.MaxPostLength {
			// Not recorded and the cursor does not advance, so the match
			// reappears on later polls until an unrelated match moves the
			// since_id window past it. Kept observable at debug level.
			slog.Debug("skipping match, rendered reply too long",
				"author", m.Author, "id", m.ID, "length", utf8.RuneCountInString(reply))
			continue
		}

		// Defensive re-check: replayed results below the cursor were
		// already handled on an earlier poll.
		if m.ID <= l.lastSeenID {
			continue
		}

		if !l.record(ctx, m) {
			return
		}

		slog.Info("sending reply", "author", m.Author, "id", m.ID)
		if err := l.client.PostReply(ctx, reply, m.ID); err != nil {
			// At-most-once: the ledger entry stands, the reply is not
			// retried here or on any later poll.
			slog.Error("post reply failed", "error", err, "author", m.Author, "id", m.ID)
		}
	}
}

// record appends the match to the ledger and advances the cursor.
// Returns false on a write failure, which aborts the rest of the
// batch's ledger writes so the cursor stays consistent with what was
// actually recorded.
func (l *Loop) record(ctx context.Context, m twitter.Match) bool {
	if err := l.ledger.AppendMatch(ctx, m.ID, m.Author, m.Text, l.now()); err != nil {
		slog.Error("ledger write failed, aborting batch", "error", err, "id", m.ID)
		return false
	}
	if m.ID > l.lastSeenID {
		l.lastSeenID = m.ID
	}
	return true
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
