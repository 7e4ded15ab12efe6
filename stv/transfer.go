// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"math"
	"slices"
)

// nextPreference returns the first candidate ranked after from who is
// still in the race. Ranks naming unlisted candidates are skipped.
func (e *Election) nextPreference(ballot Ballot, from string) (string, bool) {
	rank := ballot.rankOf(from)
	for _, r := range ballot.ranks() {
		if r <= rank {
			continue
		}
		if c := ballot[r]; c != from && e.active(c) {
			return c, true
		}
	}
	return "", false
}

// transferrableCount counts the transferrable ballots that rank from and
// have an eligible preference after it.
func (e *Election) transferrableCount(from string) int {
	total := 0
	for _, ballot := range e.pools.Transferrable {
		if ballot.rankOf(from) == 0 {
			continue
		}
		if _, ok := e.nextPreference(ballot, from); ok {
			total++
		}
	}
	return total
}

// transfer moves the ballots ranking from on to their next eligible
// preference at the given ratio. Ballots with nowhere to go are moved to the
// non-transferrable pool. It returns the votes credited to each candidate.
func (e *Election) transfer(from string, ratio float64) map[string]int {
	if ratio > 1 {
		ratio = 1
	}

	pending := make(map[string]int)
	var exhausted []int

	for i, ballot := range e.pools.Transferrable {
		if ballot.rankOf(from) == 0 {
			continue
		}

		next, ok := e.nextPreference(ballot, from)
		if !ok {
			exhausted = append(exhausted, i)
			continue
		}
		pending[next]++
	}

	// Highest index first so earlier indices stay valid
	for _, i := range slices.Backward(exhausted) {
		ballot := e.pools.Transferrable[i]
		e.pools.Transferrable = slices.Delete(e.pools.Transferrable, i, i+1)
		e.pools.NonTransferrable = append(e.pools.NonTransferrable, ballot)
	}

	changes := make(map[string]int, len(pending))
	for _, c := range e.candidates {
		n, ok := pending[c]
		if !ok {
			continue
		}
		changes[c] = int(math.Round(float64(n) * ratio))
		e.tallies[c] += changes[c]
	}

	e.logger.Debug("votes transferred",
		"from", from,
		"ratio", ratio,
		"exhausted", len(exhausted),
		"changes", changes,
	)

	return changes
}
