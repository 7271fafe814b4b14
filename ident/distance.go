// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ident

import "math/bits"

// XORDistance returns the bitwise XOR of a and b, the metric the routing
// table buckets and the storage eviction score are both built on.
func XORDistance(a, b ID256) ID256 {
	var d ID256
	for i := range a {
		d[i] = a[i] ^ b[i]
	}
	return d
}

// LeadingZeros returns the number of leading zero bits in id, treating id as
// a 256-bit big-endian integer. For a distance value this is the Kademlia
// bucket index: a distance with k leading zero bits belongs in bucket k.
func LeadingZeros(id ID256) int {
	for i, b := range id {
		if b != 0 {
			return i*8 + bits.LeadingZeros8(b)
		}
	}
	return Len * 8
}

// BucketIndex returns the k-bucket index that peer should occupy in a
// routing table centered on self: the position of the highest set bit in
// the XOR distance between them, counted from the most significant bit.
// Two distinct identifiers always land in a valid bucket in [0, 8*Len).
func BucketIndex(self, peer ID256) int {
	return LeadingZeros(XORDistance(self, peer))
}

// Less reports whether a is strictly closer to target than b, by XOR
// distance. It gives a total order for sorting candidate peers or Flo
// replicas by proximity to a lookup key.
func Less(target, a, b ID256) bool {
	da := XORDistance(target, a)
	db := XORDistance(target, b)
	return da.Compare(db) < 0
}
