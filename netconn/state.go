// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package netconn implements the per-peer connection state machine: two
// independent data-channel directions (incoming and outgoing), signalling
// exchange to bring either one up, and fragmentation/reassembly of
// messages too large for a single WebRTC data-channel frame.
package netconn

import "fmt"

// Direction names which of the two data channels a message concerns.
type Direction uint8

const (
	// Incoming is the channel the remote peer initiated.
	Incoming Direction = iota
	// Outgoing is the channel this node initiated.
	Outgoing
)

func (d Direction) String() string {
	if d == Incoming {
		return "incoming"
	}
	return "outgoing"
}

// SignallingState is where one directional data channel sits in the
// offer/answer/ICE exchange that brings it up.
type SignallingState uint8

const (
	// Idle means no setup has started on this direction yet.
	Idle SignallingState = iota
	// OfferSent means this node generated an SDP offer and is waiting to
	// publish it to the remote peer via the signalling channel.
	OfferSent
	// OfferPublished means the offer reached the signalling channel and
	// this node is waiting for an answer.
	OfferPublished
	// IceExchange means an answer was received and ICE candidates are
	// being traded to find a viable transport path.
	IceExchange
	// Connected means the data channel is open and ready to carry
	// application messages.
	Connected
	// Closed means the direction was torn down, and a fresh Setup must
	// restart it from Idle.
	Closed
)

func (s SignallingState) String() string {
	switch s {
	case Idle:
		return "idle"
	case OfferSent:
		return "offer-sent"
	case OfferPublished:
		return "offer-published"
	case IceExchange:
		return "ice-exchange"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// validTransitions enumerates the signalling state machine's allowed edges,
// grounded on the offer/answer/ICE handshake a WebRTC data channel goes
// through regardless of direction.
var validTransitions = map[SignallingState][]SignallingState{
	Idle:           {OfferSent, IceExchange},
	OfferSent:      {OfferPublished, Closed},
	OfferPublished: {IceExchange, Closed},
	IceExchange:    {Connected, Closed},
	Connected:      {Closed},
	Closed:         {Idle, OfferSent, IceExchange},
}

// CanTransition reports whether moving from 'from' to 'to' is a legal edge
// in the signalling state machine.
func CanTransition(from, to SignallingState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition is returned when code attempts to move a direction's
// SignallingState along an edge the handshake does not allow.
type ErrInvalidTransition struct {
	From, To SignallingState
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("netconn: invalid signalling transition %s -> %s", e.From, e.To)
}
