// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/luxfi/flo/flo"
	"github.com/luxfi/flo/ident"
)

// MessageKind discriminates the storage-protocol messages carried as
// opaque dht/kademlia.Message.Payload blobs.
type MessageKind uint8

const (
	// MsgFloRequest asks the terminal node for a realm/id pair.
	MsgFloRequest MessageKind = iota
	// MsgFloReply answers a MsgFloRequest with the encoded Flo.
	MsgFloReply
	// MsgFloAbsent answers a MsgFloRequest when the terminal node has no
	// such Flo.
	MsgFloAbsent
	// MsgSyncDigest offers a compact summary of one realm's holdings.
	MsgSyncDigest
	// MsgSyncDigestReply reports, for each offered entry, whether the
	// receiver already has it and at what version.
	MsgSyncDigestReply
	// MsgSyncPush delivers a Flo the receiver was found to be missing or
	// behind on, unsolicited relative to a digest round.
	MsgSyncPush
)

// DigestEntry is one holding offered in a sync digest: a FloID and the
// number of HistorySteps applied to it locally (its "version").
type DigestEntry struct {
	FloID   ident.ID256 `msgpack:"flo_id"`
	Version uint64      `msgpack:"version"`
}

// Message is the envelope every storage-protocol exchange is wrapped in
// before becoming a dht/kademlia.Message Payload.
type Message struct {
	Kind    MessageKind   `msgpack:"kind"`
	Realm   ident.ID256   `msgpack:"realm"`
	FloID   ident.ID256   `msgpack:"flo_id,omitempty"`
	Flo     *flo.Flo      `msgpack:"flo,omitempty"`
	Digest  []DigestEntry `msgpack:"digest,omitempty"`
	Reports []DigestEntry `msgpack:"reports,omitempty"`
}

// encodeMessage serializes msg for transport as a kademlia.Message payload.
func encodeMessage(msg Message) ([]byte, error) {
	b, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("storage: encoding message: %w", err)
	}
	return b, nil
}

// decodeMessage parses a payload previously produced by encodeMessage.
func decodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("storage: decoding message: %w", err)
	}
	return msg, nil
}
