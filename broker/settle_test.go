// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package broker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettleStopsWhenNoPendingWork(t *testing.T) {
	require := require.New(t)

	remaining := 3
	rounds := Settle(100, func() bool {
		remaining--
		return remaining > 0
	})
	require.Equal(3, rounds)
}

func TestSettleRespectsMaxRounds(t *testing.T) {
	require := require.New(t)

	rounds := Settle(5, func() bool { return true })
	require.Equal(5, rounds)
}
