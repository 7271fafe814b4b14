// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ident

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	require := require.New(t)

	a := Hash("flo", []byte("type"), []byte("data"))
	b := Hash("flo", []byte("type"), []byte("data"))
	require.Equal(a, b)

	c := Hash("realm", []byte("type"), []byte("data"))
	require.NotEqual(a, c, "domain separation must change the output")
}

func TestHashLengthPrefixDisambiguates(t *testing.T) {
	require := require.New(t)

	a := Hash("d", []byte("ab"), []byte("c"))
	b := Hash("d", []byte("a"), []byte("bc"))
	require.NotEqual(a, b, "length-prefixed parts must not be confusable by concatenation")
}

func TestParseRoundTrip(t *testing.T) {
	require := require.New(t)

	id, err := Random()
	require.NoError(err)

	parsed, err := ParseID256(id.String())
	require.NoError(err)
	require.Equal(id, parsed)
}

func TestFromBytesLength(t *testing.T) {
	require := require.New(t)

	_, err := FromBytes(make([]byte, 10))
	require.Error(err)

	id, err := FromBytes(make([]byte, Len))
	require.NoError(err)
	require.True(id.IsEmpty())
}

func TestCompareOrdering(t *testing.T) {
	require := require.New(t)

	var a, b ID256
	a[0] = 1
	b[0] = 2
	require.Equal(-1, a.Compare(b))
	require.Equal(1, b.Compare(a))
	require.Equal(0, a.Compare(a))
}

func TestJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	id, err := Random()
	require.NoError(err)

	data, err := id.MarshalJSON()
	require.NoError(err)

	var out ID256
	require.NoError(out.UnmarshalJSON(data))
	require.Equal(id, out)
}
