// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"sort"

	"github.com/luxfi/flo/flo"
	"github.com/luxfi/flo/ident"
)

// buildDigest samples up to s.digestBudget FloIDs from rs, ordered closest
// to self first per spec.md §4.4's digest sampling rule. Callers must hold
// rs.mu for reading.
func (s *Store) buildDigest(rs *realmState) []DigestEntry {
	ids := make([]ident.ID256, 0, len(rs.flos))
	for id := range rs.flos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return flo.RankCloser(s.self, ids[i], ids[j])
	})
	if len(ids) > s.digestBudget {
		ids = ids[:s.digestBudget]
	}
	entries := make([]DigestEntry, len(ids))
	for i, id := range ids {
		entries[i] = DigestEntry{FloID: id, Version: rs.flos[id].Height()}
	}
	return entries
}

// Sync sends every subscribed realm's digest to every currently active
// peer, the spec.md §4.4 "opportunistic neighbour exchange".
func (s *Store) Sync() []error {
	if s.router == nil {
		return nil
	}
	var errs []error
	peers := s.router.ActiveNodes()

	s.mu.RLock()
	realms := make([]*realmState, 0, len(s.realms))
	for _, rs := range s.realms {
		realms = append(realms, rs)
	}
	s.mu.RUnlock()

	for _, rs := range realms {
		rs.mu.RLock()
		digest := s.buildDigest(rs)
		rs.mu.RUnlock()
		if len(digest) == 0 {
			continue
		}
		payload, err := encodeMessage(Message{Kind: MsgSyncDigest, Realm: rs.realm, Digest: digest})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, peer := range peers {
			if err := s.router.RouteDirect(s.self, ident.ID256{}, peer, payload); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// handleDigest replies with a report of what this node already holds for
// each offered entry (version 0 for an entry it does not hold), and
// separately fetches every entry it holds at a lower version than the
// sender's. Entries it does not hold are not fetched here.
func (s *Store) handleDigest(origin ident.ID256, msg Message) error {
	rs, ok := s.realmFor(msg.Realm)
	if !ok {
		return nil
	}

	rs.mu.RLock()
	reports := make([]DigestEntry, 0, len(msg.Digest))
	var toFetch []ident.ID256
	for _, entry := range msg.Digest {
		local, has := rs.flos[entry.FloID]
		version := uint64(0)
		if has {
			version = local.Height()
		}
		reports = append(reports, DigestEntry{FloID: entry.FloID, Version: version})
		if has && local.Height() < entry.Version {
			toFetch = append(toFetch, entry.FloID)
		}
	}
	rs.mu.RUnlock()

	payload, err := encodeMessage(Message{Kind: MsgSyncDigestReply, Realm: msg.Realm, Reports: reports})
	if err != nil {
		return err
	}
	if s.router != nil {
		if err := s.router.RouteDirect(s.self, ident.ID256{}, origin, payload); err != nil {
			return err
		}
	}
	for _, id := range toFetch {
		reqPayload, err := encodeMessage(Message{Kind: MsgFloRequest, Realm: msg.Realm, FloID: id})
		if err != nil {
			continue
		}
		if s.router != nil {
			_ = s.router.RouteDirect(s.self, ident.ID256{}, origin, reqPayload)
		}
	}
	return nil
}

// handleDigestReply pushes every Flo the reporting peer lacks or is behind
// on, and fetches anything it reports a strictly newer version of.
func (s *Store) handleDigestReply(origin ident.ID256, msg Message) error {
	rs, ok := s.realmFor(msg.Realm)
	if !ok {
		return nil
	}

	rs.mu.RLock()
	var toPush []*flo.Flo
	var toFetch []ident.ID256
	for _, report := range msg.Reports {
		local, has := rs.flos[report.FloID]
		if !has {
			continue
		}
		// A peer that lacks the Flo reports version 0, so it is pushed
		// even when the local copy is itself still at version 0.
		if local.Height() > report.Version || report.Version == 0 {
			toPush = append(toPush, local)
		} else if local.Height() < report.Version {
			toFetch = append(toFetch, report.FloID)
		}
	}
	rs.mu.RUnlock()

	for _, f := range toPush {
		payload, err := encodeMessage(Message{Kind: MsgSyncPush, Realm: msg.Realm, FloID: f.ID, Flo: f})
		if err != nil {
			continue
		}
		if s.router != nil {
			_ = s.router.RouteDirect(s.self, ident.ID256{}, origin, payload)
		}
	}
	for _, id := range toFetch {
		payload, err := encodeMessage(Message{Kind: MsgFloRequest, Realm: msg.Realm, FloID: id})
		if err != nil {
			continue
		}
		if s.router != nil {
			_ = s.router.RouteDirect(s.self, ident.ID256{}, origin, payload)
		}
	}
	return nil
}
