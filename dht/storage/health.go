// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "context"

// HealthReport summarizes every subscribed realm's budget headroom, the
// signal an operator cares about for this component: a realm pinned at
// max_space is about to start refusing or evicting.
type HealthReport struct {
	Realms map[string]RealmHealth `json:"realms"`
}

// RealmHealth reports one realm's occupancy against its configured budget.
type RealmHealth struct {
	UsedBytes uint64 `json:"usedBytes"`
	MaxBytes  uint64 `json:"maxBytes"`
	Flos      int    `json:"flos"`
}

// Health reports every subscribed realm's budget headroom in the
// (context.Context) (interface{}, error) shape a caller composing
// several components' health reports can treat uniformly.
func (s *Store) Health(_ context.Context) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := HealthReport{Realms: make(map[string]RealmHealth, len(s.realms))}
	for realm, rs := range s.realms {
		rs.mu.RLock()
		report.Realms[realm.String()] = RealmHealth{
			UsedBytes: rs.usage.Bytes,
			MaxBytes:  rs.budget.MaxBytes,
			Flos:      len(rs.flos),
		}
		rs.mu.RUnlock()
	}
	return report, nil
}
