// Package reservation holds rate-limit reservations.
//
// A reservation is a timestamp under a (namespace, identity) key. It is live
// while now - createdAt < window and blocks new admissions under the same key.
// Expiry is checked lazily on read, Sweep only bounds memory.
package reservation

import (
	"context"
	"errors"
	"time"
)

// DefaultWindow is how long a reservation blocks its key.
const DefaultWindow = 24 * time.Hour

var ErrNoKeys = errors.New("no reservation keys given")

// Key of a reservation.
// Namespace is the asset name, Identity is a client ip or a receiver address.
type Key struct {
	Namespace string
	Identity  string
}

func (k Key) String() string {
	return k.Namespace + ":" + k.Identity
}

// Store defines what a reservation backend must do,
// regardless of the underlying implementation.
type Store interface {
	// TryReserve returns false and changes nothing if key holds a live
	// reservation, otherwise it (over)writes key with now and returns true.
	TryReserve(ctx context.Context, key Key, now time.Time) (bool, error)

	// ReserveAll checks keys in order and returns the index of the first live
	// one without writing anything. If none is live, all keys are reserved
	// with now and -1 is returned. Check and reserve happen atomically.
	ReserveAll(ctx context.Context, now time.Time, keys ...Key) (int, error)

	// Release removes the reservation under key. Idempotent.
	Release(ctx context.Context, key Key) error

	// Remaining returns how long key stays live, 0 if it is not.
	Remaining(ctx context.Context, key Key, now time.Time) (time.Duration, error)
}

// Sweeper is implemented by backends that need expired entries removed.
type Sweeper interface {
	Sweep(now time.Time) int
}
