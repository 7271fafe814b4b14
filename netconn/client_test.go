// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/ident"
)

// fakeConn is an in-memory Conn: writes from the client land on outbound,
// and ReadJSON drains inbound, letting tests drive a SignallingClient's
// read loop deterministically without a real socket.
type fakeConn struct {
	mu       sync.Mutex
	inbound  chan []byte
	outbound [][]byte
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 8)}
}

func (f *fakeConn) push(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	f.inbound <- b
}

func (f *fakeConn) ReadJSON(v interface{}) error {
	b, ok := <-f.inbound
	if !ok {
		return errors.New("fakeConn: closed")
	}
	return json.Unmarshal(b, v)
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.outbound = append(f.outbound, b)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbound)
	}
	return nil
}

func (f *fakeConn) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.outbound))
	copy(out, f.outbound)
	return out
}

type fakeDialer struct{ conn *fakeConn }

func (d fakeDialer) Dial(string) (Conn, error) { return d.conn, nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestClientAnswersChallengeWithSignedAnnounce(t *testing.T) {
	require := require.New(t)

	sg, err := signer.New(signer.Ed25519)
	require.NoError(err)
	conn := newFakeConn()
	self := NodeInfo{Name: "n1", Client: "flo/1.0.0", PubKey: sg.Public().Bytes()}

	client, err := Dial(fakeDialer{conn}, "ws://example", self, sg, nil, nil)
	require.NoError(err)
	defer client.Close()

	challengeID, err := ident.Random()
	require.NoError(err)
	conn.push(ServerMessage{Challenge: &ChallengeMessage{Version: 3, ID: challengeID}})

	waitFor(t, func() bool { return len(conn.written()) >= 1 })

	var sent ClientMessage
	require.NoError(json.Unmarshal(conn.written()[0], &sent))
	require.NotNil(sent.Announce)
	require.Equal(uint64(3), sent.Announce.Version)
	require.Equal(challengeID, sent.Announce.Challenge)
	require.Equal(self.Name, sent.Announce.NodeInfo.Name)
	require.True(sg.Public().Verify(challengeID.Bytes(), sent.Announce.Signature))
}

func TestClientCollectsListIDsReply(t *testing.T) {
	require := require.New(t)

	sg, err := signer.New(signer.Ed25519)
	require.NoError(err)
	conn := newFakeConn()
	self := NodeInfo{Name: "n1", PubKey: sg.Public().Bytes()}

	client, err := Dial(fakeDialer{conn}, "ws://example", self, sg, nil, nil)
	require.NoError(err)
	defer client.Close()

	other := NodeInfo{Name: "n2", PubKey: []byte("other-pubkey")}
	conn.push(ServerMessage{ListIDsReply: []NodeInfo{other}})

	waitFor(t, func() bool { return len(client.Peers()) == 1 })
	require.Equal("n2", client.Peers()[0].Name)
}

func TestClientDispatchesPeerSetupToCallback(t *testing.T) {
	require := require.New(t)

	sg, err := signer.New(signer.Ed25519)
	require.NoError(err)
	conn := newFakeConn()
	self := NodeInfo{Name: "n1", PubKey: sg.Public().Bytes()}

	var received PeerSetup
	done := make(chan struct{})
	onSetup := func(ps PeerSetup) {
		received = ps
		close(done)
	}

	client, err := Dial(fakeDialer{conn}, "ws://example", self, sg, onSetup, nil)
	require.NoError(err)
	defer client.Close()

	initID, err := ident.Random()
	require.NoError(err)
	followID, err := ident.Random()
	require.NoError(err)
	conn.push(ServerMessage{PeerSetup: &PeerSetup{IDInit: initID, IDFollow: followID, Message: NewPeerOffer("v=0")}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onPeerSetup callback never fired")
	}
	require.Equal(initID, received.IDInit)
	require.Equal(followID, received.IDFollow)
}

func TestRequestListIDsWritesNullPayload(t *testing.T) {
	require := require.New(t)

	sg, err := signer.New(signer.Ed25519)
	require.NoError(err)
	conn := newFakeConn()
	client, err := Dial(fakeDialer{conn}, "ws://example", NodeInfo{PubKey: sg.Public().Bytes()}, sg, nil, nil)
	require.NoError(err)
	defer client.Close()

	require.NoError(client.RequestListIDs())
	waitFor(t, func() bool { return len(conn.written()) >= 1 })
	require.JSONEq(`{"ListIDsRequest":null}`, string(conn.written()[0]))
}

func TestPeerSignallerPublishesPeerSetup(t *testing.T) {
	require := require.New(t)

	sg, err := signer.New(signer.Ed25519)
	require.NoError(err)
	conn := newFakeConn()
	client, err := Dial(fakeDialer{conn}, "ws://example", NodeInfo{PubKey: sg.Public().Bytes()}, sg, nil, nil)
	require.NoError(err)
	defer client.Close()

	initID, err := ident.Random()
	require.NoError(err)
	followID, err := ident.Random()
	require.NoError(err)
	ps := NewPeerSignaller(client, initID, followID)

	require.NoError(ps.Publish(SignalMessage{Kind: SignalOffer, SDP: "v=0 offer"}))
	waitFor(t, func() bool { return len(conn.written()) >= 1 })

	var sent ClientMessage
	require.NoError(json.Unmarshal(conn.written()[0], &sent))
	require.NotNil(sent.PeerSetup)
	require.Equal(initID, sent.PeerSetup.IDInit)
	require.Equal("v=0 offer", sent.PeerSetup.Message.Offer)
}

func TestFromPeerMessageConvertsOfferAndAnswer(t *testing.T) {
	require := require.New(t)

	from, err := ident.Random()
	require.NoError(err)
	to, err := ident.Random()
	require.NoError(err)

	offer := FromPeerMessage(NewPeerOffer("sdp"), from, to)
	require.Equal(SignalOffer, offer.Kind)
	require.Equal("sdp", offer.SDP)
	require.Equal(from, offer.From)
	require.Equal(to, offer.To)

	answer := FromPeerMessage(NewPeerAnswer("sdp2"), from, to)
	require.Equal(SignalAnswer, answer.Kind)
}
