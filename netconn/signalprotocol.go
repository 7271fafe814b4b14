// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"encoding/json"
	"errors"

	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/ident"
	"github.com/luxfi/flo/version"
)

// NodeInfo is what a node announces about itself to the signalling server
// and learns about every other node through ListIDsReply.
type NodeInfo struct {
	Name    string `json:"name"`
	Client  string `json:"client"`
	PubKey  []byte `json:"pubkey"`
	Modules uint32 `json:"modules"`
}

// Application parses Client back into a version.Application, the form
// Compatible checks are made against. The second return is false if Client
// was never produced by this package (an unknown or malformed peer build).
func (n NodeInfo) Application() (version.Application, bool) {
	return version.Parse(n.Client)
}

// ID is the stable identifier derived from the node's public key, the same
// domain-hashed form every other package in this module uses to name peers.
func (n NodeInfo) ID(kind signer.Kind) ident.ID256 {
	return signer.VerifierID(kind, n.PubKey)
}

// PeerMessage is the discriminated union carried inside a PeerSetup
// envelope: Init has no payload, Offer/Answer/IceCandidate each carry one
// SDP or ICE candidate line.
type PeerMessage struct {
	Init         bool
	Offer        string
	Answer       string
	IceCandidate string
	kind         peerMessageKind
}

type peerMessageKind uint8

const (
	peerMessageNone peerMessageKind = iota
	peerMessageInit
	peerMessageOffer
	peerMessageAnswer
	peerMessageIceCandidate
)

// NewPeerInit, NewPeerOffer, NewPeerAnswer and NewPeerIceCandidate build the
// four PeerMessage variants spec.md §6 names.
func NewPeerInit() PeerMessage { return PeerMessage{Init: true, kind: peerMessageInit} }
func NewPeerOffer(sdp string) PeerMessage {
	return PeerMessage{Offer: sdp, kind: peerMessageOffer}
}
func NewPeerAnswer(sdp string) PeerMessage {
	return PeerMessage{Answer: sdp, kind: peerMessageAnswer}
}
func NewPeerIceCandidate(ice string) PeerMessage {
	return PeerMessage{IceCandidate: ice, kind: peerMessageIceCandidate}
}

// ErrUnknownVariant is returned decoding a discriminated-union message whose
// JSON object names none of the keys this package recognizes.
var ErrUnknownVariant = errors.New("netconn: unrecognized message variant")

type peerMessageWire struct {
	Init         json.RawMessage `json:"Init,omitempty"`
	Offer        *string         `json:"Offer,omitempty"`
	Answer       *string         `json:"Answer,omitempty"`
	IceCandidate *string         `json:"IceCandidate,omitempty"`
}

// jsonNull is a key present with value null, the shape spec.md §6 uses for
// variants that carry no payload (`Init`, `ListIDsRequest`). A nil pointer
// field with `omitempty` would drop the key entirely instead, so these
// wire structs use json.RawMessage("null") to render it explicitly.
var jsonNull = json.RawMessage("null")

// MarshalJSON renders PeerMessage as the single-key object its variant
// name, matching the `Init | Offer(sdp) | Answer(sdp) | IceCandidate(ice)`
// shape spec.md §6 documents.
func (m PeerMessage) MarshalJSON() ([]byte, error) {
	var w peerMessageWire
	switch m.kind {
	case peerMessageInit:
		w.Init = jsonNull
	case peerMessageOffer:
		w.Offer = &m.Offer
	case peerMessageAnswer:
		w.Answer = &m.Answer
	case peerMessageIceCandidate:
		w.IceCandidate = &m.IceCandidate
	default:
		return nil, ErrUnknownVariant
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses whichever single variant key is present.
func (m *PeerMessage) UnmarshalJSON(data []byte) error {
	var w peerMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Init != nil:
		*m = NewPeerInit()
	case w.Offer != nil:
		*m = NewPeerOffer(*w.Offer)
	case w.Answer != nil:
		*m = NewPeerAnswer(*w.Answer)
	case w.IceCandidate != nil:
		*m = NewPeerIceCandidate(*w.IceCandidate)
	default:
		return ErrUnknownVariant
	}
	return nil
}

// PeerSetup carries one PeerMessage between two nodes named by their
// initiating/following role, relayed by the signalling server in either
// direction.
type PeerSetup struct {
	IDInit   ident.ID256 `json:"id_init"`
	IDFollow ident.ID256 `json:"id_follow"`
	Message  PeerMessage `json:"message"`
}

// Announce is the node's response to a Challenge: its identity, the
// challenge it is answering, and a signature over the challenge binding the
// two together so the server cannot attribute a NodeInfo to the wrong key.
type Announce struct {
	Version   uint64           `json:"version"`
	Challenge ident.ID256      `json:"challenge"`
	NodeInfo  NodeInfo         `json:"node_info"`
	Signature signer.Signature `json:"signature"`
}

// ClientMessage is the discriminated union a node sends to the signalling
// server: exactly one field is set.
type ClientMessage struct {
	Announce       *Announce  `json:"Announce,omitempty"`
	ListIDsRequest bool       `json:"-"`
	PeerSetup      *PeerSetup `json:"PeerSetup,omitempty"`
}

type clientMessageWire struct {
	Announce       *Announce       `json:"Announce,omitempty"`
	ListIDsRequest json.RawMessage `json:"ListIDsRequest,omitempty"`
	PeerSetup      *PeerSetup      `json:"PeerSetup,omitempty"`
}

// MarshalJSON implements the ListIDsRequest: null special case that a plain
// omitempty pointer tag cannot express (a Go nil pointer is omitted, not
// rendered as a JSON null key).
func (m ClientMessage) MarshalJSON() ([]byte, error) {
	w := clientMessageWire{Announce: m.Announce, PeerSetup: m.PeerSetup}
	if m.ListIDsRequest {
		w.ListIDsRequest = jsonNull
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the ClientMessage counterpart, used by the signalling
// server side of this protocol (not exercised by NodeConnection itself, but
// kept symmetric so a test server can round-trip real traffic).
func (m *ClientMessage) UnmarshalJSON(data []byte) error {
	var w clientMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Announce = w.Announce
	m.PeerSetup = w.PeerSetup
	m.ListIDsRequest = w.ListIDsRequest != nil
	return nil
}

// ServerMessage is the discriminated union the signalling server sends to a
// node: exactly one field is set.
type ServerMessage struct {
	Challenge    *ChallengeMessage `json:"Challenge,omitempty"`
	ListIDsReply []NodeInfo        `json:"ListIDsReply,omitempty"`
	PeerSetup    *PeerSetup        `json:"PeerSetup,omitempty"`
}

// ChallengeMessage is the `[version, id]` tuple a server issues on connect.
// It is a 2-element JSON array on the wire, not an object, so it carries its
// own Marshal/UnmarshalJSON rather than relying on struct field tags.
type ChallengeMessage struct {
	Version uint64
	ID      ident.ID256
}

// MarshalJSON renders the tuple shape `[version, "id-hex"]`.
func (c ChallengeMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{c.Version, c.ID.String()})
}

// UnmarshalJSON parses the tuple shape back.
func (c *ChallengeMessage) UnmarshalJSON(data []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[0], &c.Version); err != nil {
		return err
	}
	var hex string
	if err := json.Unmarshal(tuple[1], &hex); err != nil {
		return err
	}
	id, err := ident.ParseID256(hex)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}
