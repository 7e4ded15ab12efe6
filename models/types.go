package models

import (
	"time"

	"github.com/danielhkuo/quickly-count/stv"
)

// Election status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Counting method constants
const (
	MethodSTV = "stv"
)

// Request types

type CreateElectionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorName string `json:"creator_name"`
	Seats       int    `json:"seats"`
}

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type ClaimUsernameRequest struct {
	Username string `json:"username"`
}

// Candidate IDs in preference order, first choice first
type SubmitBallotRequest struct {
	Rankings []string `json:"rankings"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
}

type AddCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type PublishElectionResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type ClaimUsernameResponse struct {
	VoterToken string `json:"voter_token"`
}

type SubmitBallotResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type MyBallotResponse struct {
	BallotID    string    `json:"ballot_id"`
	Rankings    []string  `json:"rankings"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type CloseElectionResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type ResultsResponse struct {
	Election    Election       `json:"election"`
	Snapshot    ResultSnapshot `json:"snapshot"`
	BallotCount int            `json:"ballot_count"`
}

// ElectionPreviewResponse is the compact form used for link previews
type ElectionPreviewResponse struct {
	Title          string `json:"title"`
	Status         string `json:"status"`
	Seats          int    `json:"seats"`
	CandidateCount int    `json:"candidate_count"`
	BallotCount    int    `json:"ballot_count"`
}

// Domain types

type Election struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CreatorName     string     `json:"creator_name"`
	Method          string     `json:"method"`
	Seats           int        `json:"seats"`
	Status          string     `json:"status"`
	ShareSlug       *string    `json:"share_slug,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Candidate struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
}

type ElectionWithCandidates struct {
	Election   Election    `json:"election"`
	Candidates []Candidate `json:"candidates"`
}

type Ballot struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	VoterToken  string    `json:"-"` // Never expose in JSON
	SubmittedAt time.Time `json:"submitted_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
	UserAgent   *string   `json:"-"` // Never expose in JSON
}

// STV Result Types

// CandidateResult is a candidate's standing after the count, keyed by
// candidate ID with the display name alongside.
type CandidateResult struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Tally       int    `json:"tally"`
	Elected     bool   `json:"elected"`
	Seat        int    `json:"seat,omitempty"`       // 1-indexed order of election
	Eliminated  int    `json:"eliminated,omitempty"` // round of elimination
}

type ResultSnapshot struct {
	ID               string            `json:"id"`
	ElectionID       string            `json:"election_id"`
	Method           string            `json:"method"`
	ComputedAt       time.Time         `json:"computed_at"`
	Seats            int               `json:"seats"`
	Quota            int               `json:"quota"`
	Elected          []string          `json:"elected"` // candidate IDs in seat order
	Candidates       []CandidateResult `json:"candidates"`
	Rounds           []stv.Round       `json:"rounds"`
	ValidBallots     int               `json:"valid_ballots"`
	InvalidBallots   int               `json:"invalid_ballots"`
	ExhaustedBallots int               `json:"exhausted_ballots"`
	InputsHash       string            `json:"inputs_hash"` // Hash of all ballot IDs for verification
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
