// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

// Errors spec.md §4.4's "Failure semantics" names explicitly.
var (
	// ErrRealmNotSubscribed is returned when a caller stores or fetches a
	// Flo belonging to a realm this node has not subscribed to.
	ErrRealmNotSubscribed = errors.New("storage: realm not subscribed")
	// ErrTooLarge is returned by StoreFlo when a Flo exceeds its realm's
	// configured max_flo_size.
	ErrTooLarge = errors.New("storage: flo exceeds realm max_flo_size")
	// ErrTimeout is returned by GetFloTimeout when no reply arrives before
	// the deadline.
	ErrTimeout = errors.New("storage: fetch timed out")
	// ErrBudgetExceeded is returned by StoreFlo when the incoming Flo's
	// value score is lower than every eviction candidate, so admitting it
	// would still overflow the realm budget.
	ErrBudgetExceeded = errors.New("storage: realm budget exceeded")
	// ErrCancelled names a cancelled fetch. Store has no Close method and
	// no code path in this package returns it; a pending GetFloTimeout
	// waiter ends only with a reply or ErrTimeout.
	ErrCancelled = errors.New("storage: cancelled")
)
