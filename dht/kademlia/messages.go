// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kademlia

import "github.com/luxfi/flo/ident"

// MessageKind discriminates the wire messages the routing layer exchanges
// with peers. Ping/Pong/FindNode/FoundNodes are this implementation's own
// iterative-lookup discovery extension; ConnectedIDsRequest through Direct
// are the protocol messages spec.md §4.3 names explicitly.
type MessageKind uint8

const (
	MsgPing MessageKind = iota
	MsgPong
	MsgFindNode
	MsgFoundNodes
	MsgConnectedIDsRequest
	MsgConnectedIDsReply
	MsgNeighbour
	MsgClosest
	MsgDirect
)

// Message is one routing-protocol message. Store/Fetch payloads travel
// inside Payload as an opaque blob (the storage package's own wire
// format); this layer only concerns itself with discovering and
// maintaining the peer graph and carrying that payload to its destination.
type Message struct {
	Kind MessageKind `msgpack:"kind"`
	// From is the immediate sender of this hop: who to reply to.
	From ident.ID256 `msgpack:"from"`
	// Target is overloaded by Kind: the FindNode lookup target, the
	// routing Key for Closest, or the Destination node id for Direct.
	Target ident.ID256 `msgpack:"target,omitempty"`
	// Peers carries FoundNodes and ConnectedIDsReply peer lists.
	Peers []ident.ID256 `msgpack:"peers,omitempty"`
	// Origin is the node that first introduced this message into the
	// network, preserved across every hop of a Closest/Direct/Neighbour
	// route so the terminal node and any observer can attribute it.
	Origin ident.ID256 `msgpack:"origin,omitempty"`
	// LastHop is the peer this message was most recently forwarded from,
	// used by RouteClosest to avoid bouncing a message back the way it
	// came.
	LastHop ident.ID256 `msgpack:"last_hop,omitempty"`
	// Payload is the opaque application data a Closest, Direct or
	// Neighbour message carries (typically a dht/storage wire message).
	Payload []byte `msgpack:"payload,omitempty"`
}

// Event is emitted by a running Router for observers (metrics, dht/storage,
// tests) to react to without coupling to its internal state.
type Event struct {
	Kind EventKind
	// Peer is set for EventPeerAdmitted/Dropped. EventPeerEvicted is
	// declared but no Router emits it.
	Peer ident.ID256
	// Origin, LastHop, NextHop, Key and Payload are set for the
	// MessageRouting/Closest/Dest/Broadcast family, mirroring spec.md
	// §4.3's event signatures exactly.
	Origin  ident.ID256
	LastHop ident.ID256
	NextHop ident.ID256
	Key     ident.ID256
	Payload []byte
	// Active is set for EventNodeList: the current active peer set.
	Active []ident.ID256
}

// EventKind discriminates an Event's meaning.
type EventKind uint8

const (
	EventPeerAdmitted EventKind = iota
	EventPeerEvicted
	EventPeerDropped
	// EventMessageRouting fires when this node forwards a Closest message
	// one hop closer to its key.
	EventMessageRouting
	// EventMessageClosest fires when this node is the terminal closest
	// node for a Closest message's key (spec.md §4.3).
	EventMessageClosest
	// EventMessageDest fires when this node is the addressed destination
	// of a Direct message, or the exact key of a Closest message.
	EventMessageDest
	// EventMessageBroadcast fires when this node receives a Neighbour
	// message.
	EventMessageBroadcast
	// EventNodeList fires after every admitted observation, including a
	// refresh of an already-known peer, carrying the active peer set.
	EventNodeList
)
