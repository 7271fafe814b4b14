// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/luxfi/log"

	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/ident"
)

// Conn is the minimal duplex JSON-message transport SignallingClient needs.
// Satisfied by a wrapped *websocket.Conn in production and by a fake in
// tests, so the Challenge/Announce/ListIDs handshake can be exercised
// without a live network.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens a Conn to a signalling server URL.
type Dialer interface {
	Dial(url string) (Conn, error)
}

// WebsocketDialer dials a real signalling server over ws(s)://, the
// production Dialer.
type WebsocketDialer struct{}

// Dial implements Dialer.
func (WebsocketDialer) Dial(url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return wsConn{conn}, nil
}

type wsConn struct{ *websocket.Conn }

func (w wsConn) ReadJSON(v interface{}) error  { return w.Conn.ReadJSON(v) }
func (w wsConn) WriteJSON(v interface{}) error { return w.Conn.WriteJSON(v) }

// SignallingClient implements the node side of spec.md §6's signalling
// protocol: answer the server's Challenge with a signed Announce, learn
// every other connected NodeInfo via ListIDsRequest/ListIDsReply, and
// relay PeerSetup envelopes to whatever is bringing up a NodeConnection.
type SignallingClient struct {
	conn   Conn
	self   NodeInfo
	signer signer.Signer
	log    log.Logger

	onPeerSetup func(PeerSetup)

	mu    sync.RWMutex
	peers map[ident.ID256]NodeInfo
}

// Dial connects to url via d, announcing self once the server issues its
// Challenge. onPeerSetup, if non-nil, is invoked from the read loop for
// every PeerSetup the server relays to this node.
func Dial(d Dialer, url string, self NodeInfo, sg signer.Signer, onPeerSetup func(PeerSetup), logger log.Logger) (*SignallingClient, error) {
	conn, err := d.Dial(url)
	if err != nil {
		return nil, err
	}
	c := &SignallingClient{
		conn:        conn,
		self:        self,
		signer:      sg,
		log:         logger,
		onPeerSetup: onPeerSetup,
		peers:       make(map[ident.ID256]NodeInfo),
	}
	go c.readLoop()
	return c, nil
}

func (c *SignallingClient) readLoop() {
	for {
		var msg ServerMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if c.log != nil {
				c.log.Debug("signalling: read loop exiting", log.Err(err))
			}
			return
		}
		if err := c.handle(msg); err != nil && c.log != nil {
			c.log.Debug("signalling: handling server message", log.Err(err))
		}
	}
}

func (c *SignallingClient) handle(msg ServerMessage) error {
	switch {
	case msg.Challenge != nil:
		return c.respondChallenge(*msg.Challenge)
	case msg.ListIDsReply != nil:
		c.mu.Lock()
		for _, ni := range msg.ListIDsReply {
			c.peers[ni.ID(c.signer.Kind())] = ni
		}
		c.mu.Unlock()
		return nil
	case msg.PeerSetup != nil:
		if c.onPeerSetup != nil {
			c.onPeerSetup(*msg.PeerSetup)
		}
		return nil
	default:
		return nil
	}
}

// respondChallenge signs ch.ID and answers with this node's Announce,
// binding its NodeInfo to the challenge so the server cannot attribute it
// to a different key.
func (c *SignallingClient) respondChallenge(ch ChallengeMessage) error {
	sig, err := c.signer.Sign(ch.ID.Bytes())
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(ClientMessage{Announce: &Announce{
		Version:   ch.Version,
		Challenge: ch.ID,
		NodeInfo:  c.self,
		Signature: sig,
	}})
}

// RequestListIDs asks the server for every currently announced NodeInfo.
// The reply populates Peers asynchronously on the read loop.
func (c *SignallingClient) RequestListIDs() error {
	return c.conn.WriteJSON(ClientMessage{ListIDsRequest: true})
}

// Peers returns a snapshot of every NodeInfo learned from the server so far.
func (c *SignallingClient) Peers() []NodeInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]NodeInfo, 0, len(c.peers))
	for _, ni := range c.peers {
		out = append(out, ni)
	}
	return out
}

// SendPeerSetup relays setup to the server, which forwards it to the peer
// named by whichever of IDInit/IDFollow is not this node.
func (c *SignallingClient) SendPeerSetup(setup PeerSetup) error {
	return c.conn.WriteJSON(ClientMessage{PeerSetup: &setup})
}

// Close terminates the underlying connection and its read loop.
func (c *SignallingClient) Close() error {
	return c.conn.Close()
}

// PeerSignaller adapts a SignallingClient into the Signaller interface
// NodeConnection expects for one specific peer pairing, translating the
// internal offer/answer/ICE SignalMessage into the wire PeerSetup/
// PeerMessage envelope the signalling server relays.
type PeerSignaller struct {
	client   *SignallingClient
	idInit   ident.ID256
	idFollow ident.ID256
}

// NewPeerSignaller binds client to the (idInit, idFollow) pairing a
// NodeConnection is negotiating.
func NewPeerSignaller(client *SignallingClient, idInit, idFollow ident.ID256) *PeerSignaller {
	return &PeerSignaller{client: client, idInit: idInit, idFollow: idFollow}
}

// Publish implements Signaller by relaying msg through the signalling
// server as a PeerSetup envelope.
func (p *PeerSignaller) Publish(msg SignalMessage) error {
	return p.client.SendPeerSetup(PeerSetup{
		IDInit:   p.idInit,
		IDFollow: p.idFollow,
		Message:  toPeerMessage(msg),
	})
}

func toPeerMessage(msg SignalMessage) PeerMessage {
	switch msg.Kind {
	case SignalOffer:
		return NewPeerOffer(msg.SDP)
	case SignalAnswer:
		return NewPeerAnswer(msg.SDP)
	case SignalICECandidate:
		return NewPeerIceCandidate(msg.SDP)
	default:
		return NewPeerInit()
	}
}

// FromPeerMessage converts an inbound wire PeerMessage back into the
// internal SignalMessage shape Setup consumes. from/to name the direction
// the message travelled on the wire.
func FromPeerMessage(msg PeerMessage, from, to ident.ID256) SignalMessage {
	out := SignalMessage{From: from, To: to}
	switch {
	case msg.kind == peerMessageOffer:
		out.Kind = SignalOffer
		out.SDP = msg.Offer
	case msg.kind == peerMessageAnswer:
		out.Kind = SignalAnswer
		out.SDP = msg.Answer
	case msg.kind == peerMessageIceCandidate:
		out.Kind = SignalICECandidate
		out.SDP = msg.IceCandidate
	}
	return out
}
