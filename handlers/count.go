// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"cmp"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/danielhkuo/quickly-count/auth"
	"github.com/danielhkuo/quickly-count/models"
	"github.com/danielhkuo/quickly-count/stv"
)

// CountInput is an election's candidates and ballots as loaded from the
// database. Candidates are identified to the engine by their IDs.
type CountInput struct {
	ElectionID string
	Seats      int
	Candidates []models.Candidate
	BallotIDs  []string
	Ballots    []stv.Ballot
}

// LoadCountInput reads everything needed to count an election
func LoadCountInput(q queryer, electionID string) (CountInput, error) {
	in := CountInput{ElectionID: electionID}

	err := q.QueryRow("SELECT seats FROM election WHERE id = $1", electionID).Scan(&in.Seats)
	if err != nil {
		return in, fmt.Errorf("failed to get seats: %w", err)
	}

	in.Candidates, err = loadCandidates(q, electionID)
	if err != nil {
		return in, fmt.Errorf("failed to get candidates: %w", err)
	}

	in.BallotIDs, in.Ballots, err = loadBallots(q, electionID)
	if err != nil {
		return in, fmt.Errorf("failed to get ballots: %w", err)
	}

	return in, nil
}

// loadBallots returns every ballot of an election with its preferences.
// A ballot without preferences comes back empty and counts as invalid.
func loadBallots(q queryer, electionID string) ([]string, []stv.Ballot, error) {
	rows, err := q.Query(`
		SELECT b.id, p.rank, p.candidate_id
		FROM ballot b
		LEFT JOIN preference p ON p.ballot_id = b.id
		WHERE b.election_id = $1
		ORDER BY b.submitted_at, b.id, p.rank
	`, electionID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var ids []string
	var ballots []stv.Ballot
	for rows.Next() {
		var ballotID string
		var rank sql.NullInt64
		var candidateID sql.NullString
		if err := rows.Scan(&ballotID, &rank, &candidateID); err != nil {
			return nil, nil, err
		}

		if len(ids) == 0 || ids[len(ids)-1] != ballotID {
			ids = append(ids, ballotID)
			ballots = append(ballots, stv.Ballot{})
		}
		if rank.Valid && candidateID.Valid {
			ballots[len(ballots)-1][int(rank.Int64)] = candidateID.String
		}
	}

	return ids, ballots, rows.Err()
}

// NewCount builds an engine for the loaded election
func NewCount(in CountInput) (*stv.Election, error) {
	ids := make([]string, len(in.Candidates))
	for i, c := range in.Candidates {
		ids[i] = c.ID
	}

	return stv.New(ids, in.Seats, in.Ballots,
		stv.WithLogger(slog.Default().With("election_id", in.ElectionID)))
}

// ComputeSTVResult runs the full count and summarises it as a snapshot
func ComputeSTVResult(in CountInput) (models.ResultSnapshot, error) {
	e, err := NewCount(in)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to set up count: %w", err)
	}
	if _, err := e.Count(); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to count: %w", err)
	}

	res := e.Result()

	seat := make(map[string]int, len(res.Seats))
	for i, id := range res.Seats {
		seat[id] = i + 1
	}
	eliminatedIn := make(map[string]int)
	for i, round := range res.Rounds {
		for _, id := range round.Eliminated {
			eliminatedIn[id] = i + 1
		}
	}

	candidates := make([]models.CandidateResult, len(in.Candidates))
	for i, c := range in.Candidates {
		candidates[i] = models.CandidateResult{
			CandidateID: c.ID,
			Name:        c.Name,
			Tally:       res.Tallies[c.ID],
			Elected:     seat[c.ID] > 0,
			Seat:        seat[c.ID],
			Eliminated:  eliminatedIn[c.ID],
		}
	}
	slices.SortStableFunc(candidates, compareStanding)

	return models.ResultSnapshot{
		ElectionID:       in.ElectionID,
		Method:           models.MethodSTV,
		ComputedAt:       time.Now().UTC(),
		Seats:            in.Seats,
		Quota:            res.Quota,
		Elected:          slices.Clone(res.Seats),
		Candidates:       candidates,
		Rounds:           res.Rounds,
		ValidBallots:     res.Transferrable + res.NonTransferrable,
		InvalidBallots:   res.Invalid,
		ExhaustedBallots: res.NonTransferrable,
		InputsHash:       auth.InputsHash(in.BallotIDs),
	}, nil
}

// compareStanding orders winners by seat, then candidates still standing by
// tally, then the eliminated with the latest eliminations first.
func compareStanding(a, b models.CandidateResult) int {
	if a.Elected != b.Elected {
		if a.Elected {
			return -1
		}
		return 1
	}
	if a.Elected {
		return cmp.Compare(a.Seat, b.Seat)
	}

	standingA, standingB := a.Eliminated == 0, b.Eliminated == 0
	if standingA != standingB {
		if standingA {
			return -1
		}
		return 1
	}
	if !standingA && a.Eliminated != b.Eliminated {
		return cmp.Compare(b.Eliminated, a.Eliminated)
	}
	return cmp.Compare(b.Tally, a.Tally)
}
