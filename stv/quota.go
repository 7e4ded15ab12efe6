// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

// Quota returns the Droop quota for the given number of valid ballots and seats.
func Quota(validBallots, seats int) int {
	return validBallots/(seats+1) + 1
}
