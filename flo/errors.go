// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flo

import "errors"

var (
	// ErrNotFound is returned when a Flo lookup by id has no result.
	ErrNotFound = errors.New("flo: not found")
	// ErrStaleStep is returned when a HistoryStep's PrevStateHash no
	// longer matches the Flo's current state.
	ErrStaleStep = errors.New("flo: history step proposed against stale state")
)
