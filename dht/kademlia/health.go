// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kademlia

import (
	"context"
	"time"
)

// HealthConfig tunes when a Router's routing table is considered
// unhealthy: too few live peers, or too many recent ping misses, signals
// to an operator that this node may be isolated from the overlay.
//
// Field names mirror the teacher's networking/router HealthConfig
// (MaxDropRate, MaxOutstandingRequests) but are reinterpreted for a
// routing-table liveness surface rather than a request/response router.
type HealthConfig struct {
	// MinActivePeers is the fewest peers a healthy node should have
	// across its routing table.
	MinActivePeers int
	// MaxPingMissRate is the highest tolerable Liveness.MissRate (the
	// fraction of table peers with a recorded, uncleared ping failure)
	// before this node is unhealthy.
	MaxPingMissRate float64
}

// DefaultHealthConfig requires at least one active peer and tolerates up
// to half of the table's peers having a pending ping failure before
// reporting unhealthy.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{MinActivePeers: 1, MaxPingMissRate: 0.5}
}

// Health reports the Router's routing-table liveness against
// DefaultHealthConfig, in the (context.Context) (interface{}, error)
// shape a caller composing several components' health reports can treat
// uniformly. Use HealthCheck directly to evaluate a custom HealthConfig.
func (r *Router) Health(_ context.Context) (interface{}, error) {
	return r.HealthCheck(DefaultHealthConfig(), time.Now())
}

// HealthReport is the structured detail a Router's health check returns.
type HealthReport struct {
	ActivePeers int     `json:"activePeers"`
	PingMissRate float64 `json:"pingMissRate"`
	Healthy     bool    `json:"healthy"`
}

// HealthCheck evaluates the table against cfg. It is exposed separately
// from Health so tests can check specific thresholds without a context.
func (r *Router) HealthCheck(cfg HealthConfig, _ time.Time) (HealthReport, error) {
	active := r.table.Len()
	missRate := r.liveness.MissRate()
	healthy := active >= cfg.MinActivePeers && missRate <= cfg.MaxPingMissRate
	return HealthReport{ActivePeers: active, PingMissRate: missRate, Healthy: healthy}, nil
}
