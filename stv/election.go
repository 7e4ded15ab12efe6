// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

var (
	ErrNoCandidates       = errors.New("no candidates")
	ErrDuplicateCandidate = errors.New("duplicate candidate")
	ErrInvalidSeats       = errors.New("invalid number of seats")
	ErrCountStarted       = errors.New("count has progressed past the first count")
)

// Ballot maps a 1-based preference rank to a candidate.
type Ballot map[int]string

// ranks returns the ballot's ranks in ascending order.
func (b Ballot) ranks() []int {
	return slices.Sorted(maps.Keys(b))
}

// rankOf returns the highest preference rank given to candidate, or 0 when
// the candidate is not on the ballot.
func (b Ballot) rankOf(candidate string) int {
	found := 0
	for rank, c := range b {
		if c == candidate && (found == 0 || rank < found) {
			found = rank
		}
	}
	return found
}

// Pools holds the ballots by transfer status. Every ballot is in exactly one pool.
type Pools struct {
	Transferrable    []Ballot
	NonTransferrable []Ballot
	Invalid          []Ballot
}

// Round is the record of one count, immutable once appended to the history.
type Round struct {
	Tallies      map[string]int `json:"tallies"`
	ReachedQuota []string       `json:"reachedQuota"`
	MissedQuota  []string       `json:"missedQuota"`
	Elected      []string       `json:"elected"`
	Eliminated   []string       `json:"eliminated"`
}

// Result is the state of an election after the count.
type Result struct {
	Complete         bool           `json:"complete"`
	Quota            int            `json:"quota"`
	Seats            []string       `json:"seats"`
	Eliminated       []string       `json:"eliminated"`
	Tallies          map[string]int `json:"tallies"`
	Rounds           []Round        `json:"rounds"`
	Transferrable    int            `json:"transferrable"`
	NonTransferrable int            `json:"nonTransferrable"`
	Invalid          int            `json:"invalid"`
}

type phase int

const (
	phaseFirstCount phase = iota
	phaseRoundLoop
	phaseComplete
)

// Election is the state of a single count. It is owned by one consumer and
// is not safe for concurrent use.
type Election struct {
	candidates []string
	listed     map[string]bool
	numSeats   int
	ballots    []Ballot

	phase   phase
	started bool
	err     error

	quota      int
	seats      []string
	seated     map[string]bool
	eliminated []string
	excluded   map[string]bool
	tallies    map[string]int
	pools      Pools
	rounds     []Round

	logger *slog.Logger
}

// Option configures an Election.
type Option func(*Election)

// WithLogger makes the election log its progress to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Election) {
		e.logger = logger
	}
}

// New prepares a count of ballots for numSeats seats among candidates.
func New(candidates []string, numSeats int, ballots []Ballot, opts ...Option) (*Election, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	listed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c == "" {
			return nil, fmt.Errorf("%w: empty name", ErrDuplicateCandidate)
		}
		if listed[c] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCandidate, c)
		}
		listed[c] = true
	}

	if numSeats < 1 || numSeats > len(candidates) {
		return nil, fmt.Errorf("%w: %d seats for %d candidates", ErrInvalidSeats, numSeats, len(candidates))
	}

	// Tallies exist for every candidate from the start
	tallies := make(map[string]int, len(candidates))
	for _, c := range candidates {
		tallies[c] = 0
	}

	e := &Election{
		candidates: slices.Clone(candidates),
		listed:     listed,
		numSeats:   numSeats,
		ballots:    ballots,
		quota:      -1,
		seated:     make(map[string]bool),
		excluded:   make(map[string]bool),
		tallies:    tallies,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Err returns the error that stopped the count, if any.
func (e *Election) Err() error {
	return e.err
}

// Result returns a copy of the election state. Complete is false until the
// complete event has been produced.
func (e *Election) Result() Result {
	rounds := make([]Round, len(e.rounds))
	copy(rounds, e.rounds)

	return Result{
		Complete:         e.phase == phaseComplete,
		Quota:            e.quota,
		Seats:            copyNames(e.seats),
		Eliminated:       copyNames(e.eliminated),
		Tallies:          copyTallies(e.tallies),
		Rounds:           rounds,
		Transferrable:    len(e.pools.Transferrable),
		NonTransferrable: len(e.pools.NonTransferrable),
		Invalid:          len(e.pools.Invalid),
	}
}

func (e *Election) availableSeats() int {
	return e.numSeats - len(e.seats)
}

// active reports whether candidate is still in the race.
func (e *Election) active(candidate string) bool {
	return e.listed[candidate] && !e.seated[candidate] && !e.excluded[candidate]
}

func (e *Election) activeCandidates() []string {
	var active []string
	for _, c := range e.candidates {
		if e.active(c) {
			active = append(active, c)
		}
	}
	return active
}

func (e *Election) seat(candidate string) {
	e.seats = append(e.seats, candidate)
	e.seated[candidate] = true
}

func (e *Election) exclude(candidate string) {
	e.eliminated = append(e.eliminated, candidate)
	e.excluded[candidate] = true
}
