// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"iter"
	"slices"
)

// Events returns the count as a sequence of events. Stopping early abandons
// the count; it cannot be resumed.
func (e *Election) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if e.started {
			e.err = ErrCountStarted
			return
		}
		e.started = true
		e.run(yield)
	}
}

// Count runs the whole election and returns every event in order.
func (e *Election) Count() ([]Event, error) {
	var events []Event
	for ev := range e.Events() {
		events = append(events, ev)
	}
	return events, e.err
}

func (e *Election) run(yield func(Event) bool) {
	more, err := e.firstCount(yield)
	if err != nil {
		e.err = err
		return
	}
	if !more {
		return
	}

	e.quota = Quota(len(e.pools.Transferrable)+len(e.pools.NonTransferrable), e.numSeats)
	e.logger.Info("quota calculated",
		"quota", e.quota,
		"valid", len(e.pools.Transferrable),
		"invalid", len(e.pools.Invalid),
		"seats", e.numSeats,
	)
	if !yield(newEvent(EventQuota, QuotaData{Quota: e.quota})) {
		return
	}

	e.phase = phaseRoundLoop
	for e.availableSeats() > 0 {
		if len(e.activeCandidates()) == 0 {
			e.logger.Warn("no candidates left for open seats", "open_seats", e.availableSeats())
			break
		}
		if !e.countRound(yield) {
			return
		}
	}

	e.phase = phaseComplete
	e.logger.Info("count complete", "seats", e.seats, "rounds", len(e.rounds))
	yield(newEvent(EventComplete, CompleteData{
		Seats:   copyNames(e.seats),
		Tallies: copyTallies(e.tallies),
	}))
}

// firstCount sorts every ballot into the transferrable or invalid pool and
// credits each valid ballot to its first preference. It reports false when
// the consumer stopped.
func (e *Election) firstCount(yield func(Event) bool) (bool, error) {
	if e.phase != phaseFirstCount || len(e.rounds) != 0 {
		return false, ErrCountStarted
	}

	for _, ballot := range e.ballots {
		first, ok := ballot[1]
		if len(ballot) == 0 || !ok || !e.listed[first] {
			e.pools.Invalid = append(e.pools.Invalid, ballot)
			if !yield(newEvent(EventInvalidBallot, InvalidBallotData{})) {
				return false, nil
			}
			continue
		}

		e.tallies[first]++
		e.pools.Transferrable = append(e.pools.Transferrable, ballot)

		if !yield(newEvent(EventTally, TallyData{
			Invalid:   false,
			Candidate: first,
			Ballot:    ballot,
		})) {
			return false, nil
		}
	}

	return yield(newEvent(EventTallyComplete, TallyCompleteData{Tallies: copyTallies(e.tallies)})), nil
}

// countRound runs one round: elect whoever reached quota, otherwise
// eliminate the lowest. It reports false when the consumer stopped.
func (e *Election) countRound(yield func(Event) bool) bool {
	met, missed := e.splitByQuota()
	round := Round{
		ReachedQuota: copyNames(met),
		MissedQuota:  copyNames(missed),
		Elected:      []string{},
		Eliminated:   []string{},
	}

	if !yield(newEvent(EventMetQuota, CandidatesData{Candidates: copyNames(met)})) {
		return false
	}
	if !yield(newEvent(EventNotMetQuota, CandidatesData{Candidates: copyNames(missed)})) {
		return false
	}

	var ok bool
	switch {
	case len(met) == 0 && len(missed) <= e.availableSeats():
		ok = e.electRemaining(yield, &round, e.byTallyDesc(missed))
	case len(met) == 0:
		ok = e.eliminateLowest(yield, &round)
	default:
		if len(met) > e.availableSeats() {
			e.logger.Info("more candidates at quota than open seats",
				"met_quota", len(met),
				"open_seats", e.availableSeats(),
			)
			met = e.byTallyDesc(met)[:e.availableSeats()]
		}
		ok = e.electAtQuota(yield, &round, met)
	}
	if !ok {
		return false
	}

	round.Tallies = copyTallies(e.tallies)
	e.rounds = append(e.rounds, round)

	return yield(newEvent(EventCountComplete, CountCompleteData{
		Number: len(e.rounds),
		Count:  round,
	}))
}

// splitByQuota partitions the active candidates, in candidate order, into
// those at or above quota and those below it.
func (e *Election) splitByQuota() (met, missed []string) {
	for _, c := range e.activeCandidates() {
		if e.tallies[c] >= e.quota {
			met = append(met, c)
		} else {
			missed = append(missed, c)
		}
	}
	return met, missed
}

// byTallyDesc orders candidates by tally, highest first, keeping candidate
// order between equal tallies.
func (e *Election) byTallyDesc(candidates []string) []string {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return e.tallies[b] - e.tallies[a]
	})
	return sorted
}

func (e *Election) electAtQuota(yield func(Event) bool, round *Round, met []string) bool {
	for _, candidate := range met {
		tally := e.tallies[candidate]
		surplus := tally - e.quota

		e.seat(candidate)
		round.Elected = append(round.Elected, candidate)
		e.logger.Info("candidate elected", "candidate", candidate, "tally", tally, "surplus", surplus)

		if !yield(newEvent(EventElected, ElectedData{
			Candidate:   candidate,
			Tally:       tally,
			SeatsFilled: copyNames(e.seats),
			Surplus:     surplus,
		})) {
			return false
		}

		if surplus == 0 {
			continue
		}

		ratio := 1.0
		if n := e.transferrableCount(candidate); n > 0 {
			ratio = float64(surplus) / float64(n)
		}
		changes := e.transfer(candidate, ratio)

		if !yield(newEvent(EventDistribution, DistributionData{
			Source:  SourceSurplus,
			Changes: changes,
			Tallies: copyTallies(e.tallies),
		})) {
			return false
		}
	}
	return true
}

// electRemaining seats candidates that fill the open seats without
// reaching quota. They have no surplus to pass on.
func (e *Election) electRemaining(yield func(Event) bool, round *Round, candidates []string) bool {
	for _, candidate := range candidates {
		e.seat(candidate)
		round.Elected = append(round.Elected, candidate)
		e.logger.Info("candidate elected without quota", "candidate", candidate, "tally", e.tallies[candidate])

		if !yield(newEvent(EventElected, ElectedData{
			Candidate:   candidate,
			Tally:       e.tallies[candidate],
			SeatsFilled: copyNames(e.seats),
			Surplus:     0,
		})) {
			return false
		}
	}
	return true
}

// eliminateLowest excludes every active candidate sharing the lowest tally.
// Ties are never broken; the whole batch goes out in candidate order.
func (e *Election) eliminateLowest(yield func(Event) bool, round *Round) bool {
	var lowest []string
	lowestTally := 0
	for _, c := range e.activeCandidates() {
		tally := e.tallies[c]
		switch {
		case len(lowest) == 0 || tally < lowestTally:
			lowest = []string{c}
			lowestTally = tally
		case tally == lowestTally:
			lowest = append(lowest, c)
		}
	}

	for _, candidate := range lowest {
		e.logger.Info("candidate eliminated", "candidate", candidate, "tally", lowestTally)
		if !yield(newEvent(EventElimination, EliminationData{Candidate: candidate})) {
			return false
		}

		changes := e.transfer(candidate, 1)
		e.exclude(candidate)
		round.Eliminated = append(round.Eliminated, candidate)

		if !yield(newEvent(EventDistribution, DistributionData{
			Source:  SourceElimination,
			Changes: changes,
			Tallies: copyTallies(e.tallies),
		})) {
			return false
		}
	}
	return true
}
