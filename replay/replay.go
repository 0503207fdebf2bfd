// Package replay guarantees at-most-once acceptance per payment reference.
//
// The guard follows a reserve-before-verify discipline: a reference is
// reserved with a single atomic insert-if-absent before the expensive chain
// query runs, so concurrent requests presenting the same reference are
// rejected deterministically even while the winner's verification is still in
// flight. The reservation is committed on success and released on failure;
// once committed, a reference can never be accepted again.
package replay

import (
	"context"
	"fmt"

	"github.com/scrapeway/paygate/types"
)

// Store is the backing table for replay records. Reserve must be atomic with
// respect to concurrent callers regardless of the backing: if two callers
// reserve the same key concurrently, exactly one succeeds.
type Store interface {
	// Reserve inserts key as pending if absent and reports whether the caller
	// won the insert. false means the key is already pending or consumed.
	Reserve(ctx context.Context, key string) (bool, error)

	// Commit irrevocably marks a reserved key as consumed.
	Commit(ctx context.Context, key string) error

	// Release removes a pending reservation after failed verification so the
	// reference can be retried once the transaction confirms.
	Release(ctx context.Context, key string) error
}

// Guard records which payment references have been accepted.
type Guard struct {
	store Store
}

func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Reserve claims a payment reference for the calling request. It returns the
// reservation and true if the caller won the claim, or nil and false if the
// reference is already pending or consumed.
func (g *Guard) Reserve(ctx context.Context, ref types.PaymentReference) (*Reservation, bool, error) {
	key := ref.Key()
	ok, err := g.store.Reserve(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("replay store unavailable: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Reservation{store: g.store, key: key}, true, nil
}

// Reservation is a claimed-but-unverified payment reference. Exactly one of
// Commit or Release must be called by the owner.
type Reservation struct {
	store Store
	key   string
	done  bool
}

// Commit finalizes the reservation after successful verification. On a store
// failure the reservation stays open so the owner can still Release it and
// free the reference for a retry.
func (r *Reservation) Commit(ctx context.Context) error {
	if r.done {
		return nil
	}
	if err := r.store.Commit(ctx, r.key); err != nil {
		return err
	}
	r.done = true
	return nil
}

// Release frees the reservation after failed verification.
func (r *Reservation) Release(ctx context.Context) error {
	if r.done {
		return nil
	}
	r.done = true
	return r.store.Release(ctx, r.key)
}
