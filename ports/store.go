package ports

import (
	"context"

	"github.com/certlayer/certlayer/core"
)

// ChallengeStore holds at most one live challenge per wallet. Keys are
// lower-cased wallet addresses.
type ChallengeStore interface {
	// Put stores a challenge, overwriting any prior entry for the wallet.
	Put(ctx context.Context, challenge core.Challenge) error

	// Get returns the stored challenge for the wallet, if any. Expiry is
	// the caller's concern.
	Get(ctx context.Context, wallet string) (core.Challenge, bool, error)

	// Consume deletes the wallet's challenge and reports whether an entry
	// was present. The delete is atomic: of several concurrent callers,
	// exactly one observes true.
	Consume(ctx context.Context, wallet string) (bool, error)
}

// SessionStore holds sessions keyed by their opaque bearer token.
type SessionStore interface {
	Put(ctx context.Context, session core.Session) error

	// Get returns the stored session for the token, if any. Expiry is the
	// caller's concern; backends with native TTLs may drop entries early.
	Get(ctx context.Context, token string) (core.Session, bool, error)

	// Delete removes the session unconditionally. Idempotent.
	Delete(ctx context.Context, token string) error
}
