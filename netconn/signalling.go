// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import "github.com/luxfi/flo/ident"

// SignalKind discriminates the three message shapes exchanged while
// bringing up one direction of a connection.
type SignalKind uint8

const (
	SignalOffer SignalKind = iota
	SignalAnswer
	SignalICECandidate
)

// SignalMessage is one message in the offer/answer/ICE exchange, carried by
// whatever out-of-band channel the caller's Signaller implements (the DHT
// itself, for peers already in the routing table; a bootstrap rendezvous
// service otherwise).
type SignalMessage struct {
	Kind SignalKind  `msgpack:"kind"`
	From ident.ID256 `msgpack:"from"`
	To   ident.ID256 `msgpack:"to"`
	// SDP carries the session description for Offer/Answer, and the
	// candidate line for ICECandidate.
	SDP string `msgpack:"sdp"`
}

// Signaller is the external collaborator a NodeConnection uses to publish
// its own SignalMessages and to learn about ones addressed to it. It is
// implemented by whatever transport already connects the two peers
// (typically the DHT's existing route), letting NodeConnection stay
// ignorant of how signalling messages actually travel.
type Signaller interface {
	Publish(msg SignalMessage) error
}

// ChannelState mirrors the underlying data channel implementation's own
// readiness, independent of the higher-level SignallingState: a channel
// can be Connected at the transport level before or after this package's
// signalling state machine considers the direction Connected.
type ChannelState uint8

const (
	ChannelClosed ChannelState = iota
	ChannelConnecting
	ChannelOpen
)

// ChannelEvent is delivered by the caller's concrete WebRTC binding to
// report a state change or inbound data on one direction's data channel.
type ChannelEvent struct {
	State ChannelState
	// Data is the raw bytes received on the channel, when this event
	// reports inbound data rather than a state transition.
	Data []byte
}
