// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// encodePacket serializes a Packet to its wire form.
func encodePacket(p Packet) ([]byte, error) {
	out, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("netconn: encoding packet: %w", err)
	}
	return out, nil
}

// decodePacket parses a wire Packet into dst.
func decodePacket(data []byte, dst *Packet) error {
	if err := msgpack.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("netconn: decoding packet: %w", err)
	}
	return nil
}
