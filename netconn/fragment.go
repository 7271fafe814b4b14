// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"sync"
	"time"

	"github.com/luxfi/flo/ident"
)

// MaxFragmentSize is the largest payload carried in a single wire Packet
// before a message must be split across several. WebRTC data channels are
// unreliable above roughly this size in practice, so anything bigger is
// fragmented transparently by Split and reassembled by PacketCollector.
const MaxFragmentSize = 16 * 1024

// Packet is one wire unit sent over a data channel: either a whole small
// message (ID is empty, Part/Total are zero) or one fragment of a larger
// one identified by ID.
type Packet struct {
	ID    ident.ID256 `msgpack:"id,omitempty"`
	Part  int         `msgpack:"part,omitempty"`
	Total int         `msgpack:"total,omitempty"`
	Data  []byte      `msgpack:"data"`
}

// Split breaks msg into one or more Packets no larger than MaxFragmentSize.
// A message that already fits in one Packet gets a single fragment with a
// zero ID; anything larger is tagged with a fresh random ID so the
// receiving PacketCollector can group fragments belonging to the same
// message even if other messages interleave on the wire.
func Split(msg []byte) ([]Packet, error) {
	if len(msg) <= MaxFragmentSize {
		return []Packet{{Data: msg}}, nil
	}

	id, err := ident.Random()
	if err != nil {
		return nil, err
	}

	total := (len(msg) + MaxFragmentSize - 1) / MaxFragmentSize
	packets := make([]Packet, 0, total)
	for part := 0; part < total; part++ {
		start := part * MaxFragmentSize
		end := start + MaxFragmentSize
		if end > len(msg) {
			end = len(msg)
		}
		packets = append(packets, Packet{ID: id, Part: part, Total: total, Data: msg[start:end]})
	}
	return packets, nil
}

// pending tracks the fragments seen so far for one in-flight message.
type pending struct {
	parts    [][]byte
	received int
	lastSeen time.Time
}

// PacketCollector reassembles fragmented Packets keyed by their random ID,
// and forgets any message that stops making progress for longer than TTL
// so a peer that vanishes mid-transfer cannot leak memory indefinitely.
type PacketCollector struct {
	mu  sync.Mutex
	ttl time.Duration
	msg map[ident.ID256]*pending
}

// NewPacketCollector returns a PacketCollector that drops incomplete
// messages older than ttl. A zero ttl disables expiry.
func NewPacketCollector(ttl time.Duration) *PacketCollector {
	return &PacketCollector{ttl: ttl, msg: make(map[ident.ID256]*pending)}
}

// Add feeds one Packet into the collector. It returns the fully
// reassembled message and true once every fragment for its ID has
// arrived; otherwise it returns nil, false.
func (c *PacketCollector) Add(p Packet, now time.Time) ([]byte, bool) {
	if p.Total == 0 {
		return p.Data, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pend, ok := c.msg[p.ID]
	if !ok {
		pend = &pending{parts: make([][]byte, p.Total)}
		c.msg[p.ID] = pend
	}
	if pend.parts[p.Part] == nil {
		pend.parts[p.Part] = p.Data
		pend.received++
	}
	pend.lastSeen = now

	if pend.received < p.Total {
		return nil, false
	}

	delete(c.msg, p.ID)
	total := 0
	for _, part := range pend.parts {
		total += len(part)
	}
	out := make([]byte, 0, total)
	for _, part := range pend.parts {
		out = append(out, part...)
	}
	return out, true
}

// Sweep evicts any in-flight message that has not received a new fragment
// since before now.Add(-ttl), and returns how many were dropped. Callers
// run this on a timer; it is a no-op when ttl is zero.
func (c *PacketCollector) Sweep(now time.Time) int {
	if c.ttl == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for id, pend := range c.msg {
		if now.Sub(pend.lastSeen) > c.ttl {
			delete(c.msg, id)
			dropped++
		}
	}
	return dropped
}

// Pending returns how many messages are currently partially reassembled.
func (c *PacketCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msg)
}
