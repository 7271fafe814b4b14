// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/ident"
	"github.com/luxfi/flo/version"
)

func TestChallengeMessageWireShapeIsATuple(t *testing.T) {
	require := require.New(t)

	id, err := ident.Random()
	require.NoError(err)
	ch := ChallengeMessage{Version: 3, ID: id}

	raw, err := json.Marshal(ch)
	require.NoError(err)

	var tuple []json.RawMessage
	require.NoError(json.Unmarshal(raw, &tuple))
	require.Len(tuple, 2)

	var decoded ChallengeMessage
	require.NoError(json.Unmarshal(raw, &decoded))
	require.Equal(ch, decoded)
}

func TestClientMessageListIDsRequestEncodesNullNotOmitted(t *testing.T) {
	require := require.New(t)

	raw, err := json.Marshal(ClientMessage{ListIDsRequest: true})
	require.NoError(err)
	require.JSONEq(`{"ListIDsRequest":null}`, string(raw))

	var decoded ClientMessage
	require.NoError(json.Unmarshal(raw, &decoded))
	require.True(decoded.ListIDsRequest)
	require.Nil(decoded.Announce)
	require.Nil(decoded.PeerSetup)
}

func TestPeerMessageVariantsRoundTrip(t *testing.T) {
	require := require.New(t)

	cases := []PeerMessage{
		NewPeerInit(),
		NewPeerOffer("sdp-offer"),
		NewPeerAnswer("sdp-answer"),
		NewPeerIceCandidate("candidate-line"),
	}
	for _, pm := range cases {
		raw, err := json.Marshal(pm)
		require.NoError(err)

		var decoded PeerMessage
		require.NoError(json.Unmarshal(raw, &decoded))
		require.Equal(pm, decoded)
	}
}

func TestPeerSetupRoundTrip(t *testing.T) {
	require := require.New(t)

	init, err := ident.Random()
	require.NoError(err)
	follow, err := ident.Random()
	require.NoError(err)

	setup := PeerSetup{IDInit: init, IDFollow: follow, Message: NewPeerOffer("v=0")}
	raw, err := json.Marshal(setup)
	require.NoError(err)

	var decoded PeerSetup
	require.NoError(json.Unmarshal(raw, &decoded))
	require.Equal(setup, decoded)
}

func TestNodeInfoDerivesStableID(t *testing.T) {
	require := require.New(t)

	sg, err := signer.New(signer.Ed25519)
	require.NoError(err)

	ni := NodeInfo{Name: "n1", Client: version.Current().String(), PubKey: sg.Public().Bytes(), Modules: 0}
	require.Equal(sg.Public().ID(), ni.ID(signer.Ed25519))

	app, ok := ni.Application()
	require.True(ok)
	require.Equal(version.Current(), app)
}

func TestServerMessageDiscriminatesSingleVariant(t *testing.T) {
	require := require.New(t)

	id, err := ident.Random()
	require.NoError(err)
	raw, err := json.Marshal(ServerMessage{Challenge: &ChallengeMessage{Version: 1, ID: id}})
	require.NoError(err)

	var decoded ServerMessage
	require.NoError(json.Unmarshal(raw, &decoded))
	require.NotNil(decoded.Challenge)
	require.Nil(decoded.PeerSetup)
	require.Empty(decoded.ListIDsReply)
}
