// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-count/cliparse"
	"github.com/danielhkuo/quickly-count/middleware"
	"github.com/danielhkuo/quickly-count/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetElection handles GET /elections/{slug}
// Returns the election and its candidates but never tallies.
func (h *ResultsHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	election, err := getElection(h.db, "share_slug", shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	candidates, err := loadCandidates(h.db, election.ID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionWithCandidates{
		Election:   election,
		Candidates: candidates,
	})
}

// GetResults handles GET /elections/{slug}/results
// Results stay sealed (403) until the election is closed.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	election, err := getElection(h.db, "share_slug", shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if election.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until the election is closed")
		return
	}
	if election.FinalSnapshotID == nil {
		slog.Error("closed election has no snapshot", "election_id", election.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	var payload []byte
	err = h.db.QueryRow(`
		SELECT payload FROM result_snapshot WHERE id = $1
	`, *election.FinalSnapshotID).Scan(&payload)
	if err != nil {
		slog.Error("failed to query snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var snapshot models.ResultSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		slog.Error("failed to parse snapshot payload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to parse results")
		return
	}

	ballotCount, err := countRows(h.db, "ballot", election.ID)
	if err != nil {
		slog.Error("failed to count ballots for results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Election:    election,
		Snapshot:    snapshot,
		BallotCount: ballotCount,
	})
}

// GetBallotCount handles GET /elections/{slug}/ballot-count
// The number of ballots is visible while the election is open.
func (h *ResultsHandler) GetBallotCount(w http.ResponseWriter, r *http.Request) {
	electionID, _, ok := electionBySlug(w, h.db, r)
	if !ok {
		return
	}

	count, err := countRows(h.db, "ballot", electionID)
	if err != nil {
		slog.Error("failed to count ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]int{
		"ballot_count": count,
	})
}

// GetPreview handles GET /elections/{slug}/preview
func (h *ResultsHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var resp models.ElectionPreviewResponse
	var electionID string
	err := h.db.QueryRow(`
		SELECT id, title, status, seats FROM election WHERE share_slug = $1
	`, shareSlug).Scan(&electionID, &resp.Title, &resp.Status, &resp.Seats)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if resp.CandidateCount, err = countRows(h.db, "candidate", electionID); err == nil {
		resp.BallotCount, err = countRows(h.db, "ballot", electionID)
	}
	if err != nil {
		slog.Error("failed to count election rows", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// StreamCount handles GET /elections/{slug}/count
// Recounts a closed election and streams each event as a line of NDJSON.
// The count stops as soon as the client goes away.
func (h *ResultsHandler) StreamCount(w http.ResponseWriter, r *http.Request) {
	electionID, status, ok := electionBySlug(w, h.db, r)
	if !ok {
		return
	}
	if status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "The count is hidden until the election is closed")
		return
	}

	in, err := LoadCountInput(h.db, electionID)
	if err != nil {
		slog.Error("failed to load ballots", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	e, err := NewCount(in)
	if err != nil {
		slog.Error("failed to set up count", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to count ballots")
		return
	}

	stream := middleware.NewNDJSONStream(w)
	sent := 0
	for ev := range e.Events() {
		if r.Context().Err() != nil {
			break
		}
		if err := stream.Send(ev); err != nil {
			slog.Warn("count stream interrupted", "error", err, "election_id", electionID)
			break
		}
		sent++
	}

	slog.Info("count streamed", "election_id", electionID, "events", sent, "complete", e.Result().Complete)
}

// countRows counts the rows of table belonging to an election
func countRows(q queryer, table, electionID string) (int, error) {
	var query string
	switch table {
	case "ballot":
		query = "SELECT COUNT(*) FROM ballot WHERE election_id = $1"
	case "candidate":
		query = "SELECT COUNT(*) FROM candidate WHERE election_id = $1"
	default:
		panic("countRows: unknown table " + table)
	}

	var n int
	err := q.QueryRow(query, electionID).Scan(&n)
	return n, err
}
