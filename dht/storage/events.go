// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/luxfi/flo/dht/kademlia"
	"github.com/luxfi/flo/flo"
	"github.com/luxfi/flo/ident"
)

// encodeFloSize returns the canonical wire-encoded size of f, the byte
// count storage accounting uses uniformly with StoreFlo's own sizing.
func encodeFloSize(f *flo.Flo) (uint64, error) {
	b, err := flo.Encode(f)
	if err != nil {
		return 0, err
	}
	return uint64(len(b)), nil
}

// handleRouterEvent is registered as a handler on the kademlia Router's
// Events broker. It decodes the Payload of routing events addressed to
// this node (terminal-closest or exact-destination) as storage-protocol
// Messages and dispatches them.
func (s *Store) handleRouterEvent(ev kademlia.Event) ([]kademlia.Event, error) {
	switch ev.Kind {
	case kademlia.EventMessageClosest:
		return nil, s.dispatchPayload(ev.Origin, ev.Payload)
	case kademlia.EventMessageDest:
		return nil, s.dispatchPayload(ev.Origin, ev.Payload)
	default:
		return nil, nil
	}
}

func (s *Store) dispatchPayload(origin ident.ID256, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	msg, err := decodeMessage(payload)
	if err != nil {
		if s.log != nil {
			s.log.Debug("storage: dropping malformed payload")
		}
		return nil
	}

	switch msg.Kind {
	case MsgFloRequest:
		return s.handleFloRequest(origin, msg)
	case MsgFloReply:
		return s.handleFloReply(msg)
	case MsgFloAbsent:
		return nil
	case MsgSyncDigest:
		return s.handleDigest(origin, msg)
	case MsgSyncDigestReply:
		return s.handleDigestReply(origin, msg)
	case MsgSyncPush:
		return s.handleSyncPush(msg)
	default:
		return nil
	}
}

// handleFloRequest answers a FloRequest with FloReply if the requested Flo
// is locally present, else FloAbsent. This is the terminal-node side of
// spec.md §4.4's fetch algorithm.
func (s *Store) handleFloRequest(origin ident.ID256, msg Message) error {
	rs, ok := s.realmFor(msg.Realm)
	if !ok {
		return nil
	}
	rs.mu.RLock()
	f, has := rs.flos[msg.FloID]
	rs.mu.RUnlock()

	var reply Message
	if has {
		reply = Message{Kind: MsgFloReply, Realm: msg.Realm, FloID: msg.FloID, Flo: f}
	} else {
		reply = Message{Kind: MsgFloAbsent, Realm: msg.Realm, FloID: msg.FloID}
	}
	payload, err := encodeMessage(reply)
	if err != nil {
		return err
	}
	if s.router == nil {
		return nil
	}
	return s.router.RouteDirect(s.self, ident.ID256{}, origin, payload)
}

// handleFloReply stores the returned Flo (subject to this node's own
// budget, so intermediate cache-on-the-way-back nodes only keep what they
// can afford) and resolves any local waiters blocked on it. The replying
// peer is untrusted, so the Flo must prove its own identity before it is
// trusted as the answer to msg.FloID: a peer that returns forged content
// under a requested id must not be allowed to poison the store or
// resolve a waiter with it.
func (s *Store) handleFloReply(msg Message) error {
	if msg.Flo == nil {
		return nil
	}
	if err := msg.Flo.VerifyID(); err != nil {
		if s.log != nil {
			s.log.Debug("storage: dropping flo reply with mismatched id")
		}
		return nil
	}
	if msg.Flo.ID != msg.FloID {
		if s.log != nil {
			s.log.Debug("storage: dropping flo reply answering a different id")
		}
		return nil
	}
	rs, ok := s.realmFor(msg.Realm)
	if !ok {
		return nil
	}

	encoded, err := encodeFloSize(msg.Flo)
	if err != nil {
		return err
	}

	rs.mu.Lock()
	if existing, has := rs.flos[msg.Flo.ID]; has {
		if msg.Flo.Height() > existing.Height() {
			rs.put(msg.Flo, encoded)
		}
	} else if !rs.budget.Exceeds(rs.usage, encoded) {
		rs.put(msg.Flo, encoded)
	}
	rs.resolveWaiters(msg.Flo)
	rs.mu.Unlock()
	return nil
}

// handleSyncPush accepts an unsolicited Flo offered during a sync round,
// applying the same update/insert rules as a direct StoreFlo call.
func (s *Store) handleSyncPush(msg Message) error {
	if msg.Flo == nil {
		return nil
	}
	return s.StoreFlo(msg.Flo)
}
