// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package broker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnqueueFansOutToTaps(t *testing.T) {
	require := require.New(t)

	b := New[int, string]("test", nil)
	b.AddHandler(func(n int) ([]string, error) {
		return []string{"even", "odd"}[n%2 : n%2+1], nil
	})

	var got []string
	b.Tap(func(s string) { got = append(got, s) })

	require.NoError(b.Enqueue(2))
	require.NoError(b.Enqueue(3))
	require.Equal([]string{"even", "odd"}, got)
}

func TestHandlerErrorDoesNotStopOtherHandlers(t *testing.T) {
	require := require.New(t)

	b := New[int, string]("test", nil)
	failing := errors.New("boom")
	b.AddHandler(func(int) ([]string, error) { return nil, failing })

	var ran bool
	b.AddHandler(func(int) ([]string, error) { ran = true; return nil, nil })

	err := b.Enqueue(1)
	require.ErrorIs(err, failing)
	require.True(ran, "a later handler must still run after an earlier one errors")
}

func TestLinkForwardsTranslatedOutput(t *testing.T) {
	require := require.New(t)

	upstream := New[int, string]("upstream", nil)
	upstream.AddHandler(func(n int) ([]string, error) { return []string{"msg"}, nil })

	downstream := New[string, int]("downstream", nil)
	var received string
	downstream.AddHandler(func(s string) ([]int, error) { received = s; return nil, nil })

	Link(upstream, downstream, func(s string) (string, bool) { return s, true })

	require.NoError(upstream.Enqueue(1))
	require.Equal("msg", received)
}

func TestLinkTranslateCanDrop(t *testing.T) {
	require := require.New(t)

	upstream := New[int, string]("upstream", nil)
	upstream.AddHandler(func(n int) ([]string, error) { return []string{"msg"}, nil })

	downstream := New[string, int]("downstream", nil)
	var calls int
	downstream.AddHandler(func(string) ([]int, error) { calls++; return nil, nil })

	Link(upstream, downstream, func(s string) (string, bool) { return "", false })

	require.NoError(upstream.Enqueue(1))
	require.Equal(0, calls)
}

func TestAddTranslatorLinkIsBidirectional(t *testing.T) {
	require := require.New(t)

	left := New[int, string]("left", nil)
	left.AddHandler(func(n int) ([]string, error) {
		if n != 1 {
			return nil, nil
		}
		return []string{"from-left"}, nil
	})

	right := New[string, int]("right", nil)
	var rightSaw string
	right.AddHandler(func(s string) ([]int, error) { rightSaw = s; return []int{7}, nil })

	var leftSaw int
	left.AddHandler(func(n int) ([]string, error) {
		if n != 1 {
			leftSaw = n
		}
		return nil, nil
	})

	AddTranslatorLink(left, right,
		func(s string) (string, bool) { return s, true },
		func(n int) (int, bool) { return n, true },
	)

	require.NoError(left.Enqueue(1))
	require.Equal("from-left", rightSaw, "left's output must reach right's input")
	require.Equal(7, leftSaw, "right's output must reach left's input")
}

func TestAddTranslatorDirectMirrorsInAndOut(t *testing.T) {
	require := require.New(t)

	primary := New[int, string]("primary", nil)
	shadow := New[int, string]("shadow", nil)

	var shadowSawInput int
	shadow.AddHandler(func(n int) ([]string, error) {
		shadowSawInput = n
		return []string{"shadow-out"}, nil
	})

	var primaryOut []string
	primary.TapOut(func(s string) { primaryOut = append(primaryOut, s) })

	AddTranslatorDirect(primary, shadow,
		func(n int) (int, bool) { return n, true },
		func(s string) (string, bool) { return s, true },
	)

	require.NoError(primary.Enqueue(9))
	require.Equal(9, shadowSawInput, "primary's input must mirror into shadow's input")
	require.Equal([]string{"shadow-out"}, primaryOut, "shadow's output must mirror into primary's output")
}

func TestTapInSeesInputBeforeHandlers(t *testing.T) {
	require := require.New(t)

	b := New[int, string]("test", nil)
	var seen []int
	b.TapIn(func(n int) { seen = append(seen, n) })
	b.AddHandler(func(int) ([]string, error) { return nil, nil })

	require.NoError(b.Enqueue(1))
	require.NoError(b.Enqueue(2))
	require.Equal([]int{1, 2}, seen)
}

func TestTicketLookup(t *testing.T) {
	require := require.New(t)

	b := New[int, string]("ticketed", nil)
	defer b.Close()

	found, ok := Lookup[int, string](b.Ticket())
	require.True(ok)
	require.Same(b, found)

	b.Close()
	_, ok = Lookup[int, string](b.Ticket())
	require.False(ok, "closed broker must no longer resolve")
}
