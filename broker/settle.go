// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package broker

// Settle drives a closed network of linked Brokers to a fixpoint: it calls
// step repeatedly until step reports no more pending work, or until
// maxRounds is reached, and returns the number of rounds run. Enqueue
// itself runs a broker's handlers and its linked brokers synchronously;
// Settle is for work that step injects or drains in rounds, letting tests
// and deterministic simulations observe the system only once step reports
// nothing pending.
func Settle(maxRounds int, step func() (pending bool)) int {
	rounds := 0
	for rounds < maxRounds {
		rounds++
		if !step() {
			break
		}
	}
	return rounds
}
