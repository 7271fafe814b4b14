// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flo

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// WireVersion tags the encoding of a serialized Flo, mirroring the
// teacher's versioned-codec convention so future field additions can be
// distinguished from the original layout.
type WireVersion uint16

// CurrentWireVersion is the only version this build knows how to decode.
const CurrentWireVersion WireVersion = 0

// Encode serializes f to its canonical MsgPack wire form, prefixed by its
// WireVersion.
func Encode(f *Flo) ([]byte, error) {
	body, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("flo: encoding: %w", err)
	}
	envelope := struct {
		Version WireVersion `msgpack:"version"`
		Body    []byte      `msgpack:"body"`
	}{Version: CurrentWireVersion, Body: body}
	out, err := msgpack.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("flo: encoding envelope: %w", err)
	}
	return out, nil
}

// Decode parses a MsgPack-encoded Flo previously produced by Encode.
func Decode(data []byte) (*Flo, error) {
	var envelope struct {
		Version WireVersion `msgpack:"version"`
		Body    []byte      `msgpack:"body"`
	}
	if err := msgpack.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("flo: decoding envelope: %w", err)
	}
	if envelope.Version != CurrentWireVersion {
		return nil, fmt.Errorf("flo: unsupported wire version %d", envelope.Version)
	}
	var f Flo
	if err := msgpack.Unmarshal(envelope.Body, &f); err != nil {
		return nil, fmt.Errorf("flo: decoding body: %w", err)
	}
	return &f, nil
}

// encodeRules serializes Rules deterministically for inclusion in a
// Genesis id hash. MsgPack's map key ordering for structs is fixed by
// field declaration order, so this is stable across encodes.
func encodeRules(r Rules) ([]byte, error) {
	return msgpack.Marshal(r)
}
