// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"fmt"
	"time"
)

// Config parameterizes one NodeConnection's fragmentation and liveness
// behavior.
type Config struct {
	FragmentSize int
	FragmentTTL  time.Duration
}

// DefaultConfig returns the Config a NodeConnection uses when none is
// supplied: the standard WebRTC-safe fragment size and a 30 second
// reassembly TTL, per the fragment-reassembly-leak decision in DESIGN.md.
func DefaultConfig() Config {
	return Config{
		FragmentSize: MaxFragmentSize,
		FragmentTTL:  30 * time.Second,
	}
}

// ConfigBuilder builds a Config field by field, accumulating the first
// validation error encountered so callers can chain calls without checking
// after every step.
type ConfigBuilder struct {
	cfg Config
	err error
}

// NewConfigBuilder starts from DefaultConfig.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: DefaultConfig()}
}

// WithFragmentSize overrides the maximum fragment size.
func (b *ConfigBuilder) WithFragmentSize(n int) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("netconn: fragment size must be positive, got %d", n)
		return b
	}
	b.cfg.FragmentSize = n
	return b
}

// WithFragmentTTL overrides the reassembly TTL. A zero duration disables
// expiry entirely.
func (b *ConfigBuilder) WithFragmentTTL(d time.Duration) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if d < 0 {
		b.err = fmt.Errorf("netconn: fragment TTL must not be negative, got %s", d)
		return b
	}
	b.cfg.FragmentTTL = d
	return b
}

// Build returns the assembled Config, or the first error encountered.
func (b *ConfigBuilder) Build() (Config, error) {
	return b.cfg, b.err
}
