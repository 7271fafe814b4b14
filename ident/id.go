// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ident defines the opaque 256-bit identifiers used throughout the
// fabric: node identities, Flo identities, realm identities and badge
// identities all share the same underlying representation so that routing,
// hashing and distance math are implemented exactly once.
package ident

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/flo/util/formatting"
)

// Len is the length in bytes of an ID256.
const Len = 32

// ID256 is an opaque 256-bit identifier. It is used directly, with no
// separate named types, for node, Flo, realm, badge and ACE ids, all of
// which share this one wire representation.
type ID256 [Len]byte

// Empty is the all-zero ID256, used as a not-set sentinel.
var Empty ID256

// FromBytes copies b into a new ID256. It returns an error if b is not
// exactly Len bytes long.
func FromBytes(b []byte) (ID256, error) {
	var id ID256
	if len(b) != Len {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidLength, Len, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Random returns a cryptographically random ID256.
func Random() (ID256, error) {
	var id ID256
	if _, err := rand.Read(id[:]); err != nil {
		return id, fmt.Errorf("ident: reading random bytes: %w", err)
	}
	return id, nil
}

// Hash derives an ID256 by hashing domain alongside an arbitrary number of
// byte strings. The domain string is mixed in first so that identifiers
// computed for different purposes (node identity, Flo identity, realm
// identity, ...) never collide even if fed the same payload.
func Hash(domain string, parts ...[]byte) ID256 {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, p := range parts {
		var lenPrefix [8]byte
		putUint64(lenPrefix[:], uint64(len(p)))
		h.Write(lenPrefix[:])
		h.Write(p)
	}
	var id ID256
	copy(id[:], h.Sum(nil))
	return id
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
}

// String returns the lowercase hex encoding of the identifier.
func (id ID256) String() string {
	s, _ := formatting.Encode(formatting.HexNC, id[:])
	return s
}

// Bytes returns the raw bytes of the identifier.
func (id ID256) Bytes() []byte {
	out := make([]byte, Len)
	copy(out, id[:])
	return out
}

// IsEmpty reports whether id is the zero value.
func (id ID256) IsEmpty() bool {
	return id == Empty
}

// Compare returns -1, 0 or 1 if id is less than, equal to, or greater than
// other, using big-endian byte order. It gives ID256 a total order suitable
// for sorted routing tables and deterministic tie-breaking.
func (id ID256) Compare(other ID256) int {
	for i := range id {
		if id[i] != other[i] {
			if id[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ParseID256 decodes a hex string produced by String.
func ParseID256(s string) (ID256, error) {
	var id ID256
	b, err := formatting.Decode(formatting.HexNC, s)
	if err != nil {
		return id, fmt.Errorf("ident: decoding hex: %w", err)
	}
	return FromBytes(b)
}

// MarshalText implements encoding.TextMarshaler so ID256 round-trips through
// JSON and YAML as a hex string instead of a byte array.
func (id ID256) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID256) UnmarshalText(text []byte) error {
	parsed, err := ParseID256(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

var _ json.Marshaler = ID256{}
var _ json.Unmarshaler = (*ID256)(nil)

// MarshalJSON implements json.Marshaler.
func (id ID256) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID256) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*id = Empty
		return nil
	}
	parsed, err := ParseID256(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ErrInvalidLength is returned by decoders fed a buffer of the wrong size.
var ErrInvalidLength = errors.New("ident: invalid id length")
