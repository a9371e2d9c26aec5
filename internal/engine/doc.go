// Package engine implements the bot's poll-filter-reply control loop
// and the Engine that composes it with the store and session manager.
//
// The loop is the process's single long-running activity. Per iteration
// it fetches search results above the cursor, classifies each match
// (ignore / skip / reply), appends handled matches to the ledger, posts
// replies, and waits out the pacing interval. It blocks at exactly two
// points - the network calls and the pacing wait - and both observe
// context cancellation, so shutdown never hangs.
//
// # Critical Ordering
//
// The ledger write happens before the reply is sent. A crash between
// the two loses that one reply but can never duplicate it on restart:
// at-most-once delivery, trading "never miss" for "never spam".
//
// The cursor (last seen match id) only ever advances, and only from ids
// that were actually recorded, so replayed search results are never
// reprocessed.
package engine
