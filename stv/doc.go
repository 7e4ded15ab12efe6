// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package stv counts Single Transferable Vote elections.

# Construction

An election is built from an ordered candidate list, a seat count and the
raw ballots. Each ballot maps a 1-based rank to a candidate:

	e, err := stv.New([]string{"A", "B", "C"}, 1, []stv.Ballot{
		{1: "A", 2: "B"},
		{1: "B"},
		{},
	})

New rejects an empty candidate list, duplicate or empty candidate names and a
seat count outside 1..len(candidates).

# Counting

The count is produced as an ordered sequence of events. Consume it one event
at a time:

	for ev := range e.Events() {
		fmt.Println(ev.Name)
	}
	if err := e.Err(); err != nil {
		// ...
	}

Breaking out of the loop stops the count. The election cannot be resumed
afterwards and a second call to Events reports ErrCountStarted.

Or drain it in one go:

	events, err := e.Count()

# Event Sequence

	invalidBallot / tally   one per submitted ballot
	tallyComplete           first preferences counted
	quota                   Droop quota
	metQuota, notMetQuota   once per round
	elimination             per eliminated candidate, followed by distribution
	elected                 per elected candidate, followed by distribution
	                        when the candidate has a surplus
	countComplete           end of round
	complete                all seats filled

# Counting Rules

  - Quota: floor(valid / (seats + 1)) + 1
  - Nobody at quota: every active candidate sharing the lowest tally is
    eliminated in the same round and their ballots move on at full value.
  - Quota reached: the candidates are seated and the surplus moves on at
    surplus / transferable ballots, rounded per receiving candidate.
  - More candidates at quota than open seats: the highest tallies take the
    seats, ties by candidate order.
  - Nobody at quota and no more active candidates than open seats: all of
    them are seated.

Ballots without a first preference for a listed candidate are invalid and do
not count toward the quota.
*/
package stv
