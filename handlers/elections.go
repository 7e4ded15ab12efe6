// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-count/auth"
	"github.com/danielhkuo/quickly-count/cliparse"
	"github.com/danielhkuo/quickly-count/middleware"
	"github.com/danielhkuo/quickly-count/models"
)

const electionColumns = `id, title, description, creator_name, method, seats, status,
	share_slug, closed_at, final_snapshot_id, created_at`

type ElectionHandler struct {
	db   *sql.DB
	cfg  cliparse.Config
	keys auth.Keyring
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{
		db:   db,
		cfg:  cfg,
		keys: auth.NewKeyring(cfg.AdminKeySalt, cfg.ElectionSlugSalt),
	}
}

// authorize checks the X-Admin-Key header against the election in the path.
// It writes the error response itself and returns false on failure.
func (h *ElectionHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return "", false
	}

	if err := h.keys.CheckAdminKey(electionID, r.Header.Get("X-Admin-Key")); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}

	return electionID, true
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	switch {
	case req.Title == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	case req.CreatorName == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "creator_name is required")
		return
	case req.Seats < 1:
		middleware.ErrorResponse(w, http.StatusBadRequest, "seats must be at least 1")
		return
	}

	electionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO election (id, title, description, creator_name, method, seats, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, electionID, req.Title, req.Description, req.CreatorName, models.MethodSTV, req.Seats, models.StatusDraft, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "seats", req.Seats, "creator", req.CreatorName)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		AdminKey:   h.keys.AdminKey(electionID),
	})
}

// AddCandidate handles POST /elections/{id}/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	var status string
	var position int
	err := h.db.QueryRow(`
		SELECT e.status, COALESCE(MAX(c.position), 0) + 1
		FROM election e
		LEFT JOIN candidate c ON c.election_id = e.id
		WHERE e.id = $1
		GROUP BY e.status
	`, electionID).Scan(&status, &position)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add candidates to a published election")
		return
	}

	candidateID := auth.NewRecordID()
	_, err = h.db.Exec(`
		INSERT INTO candidate (id, election_id, name, position)
		VALUES ($1, $2, $3, $4)
	`, candidateID, electionID, req.Name, position)
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "A candidate with that name already exists")
		return
	}
	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add candidate")
		return
	}

	slog.Info("candidate added", "election_id", electionID, "candidate_id", candidateID, "position", position)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{
		CandidateID: candidateID,
	})
}

// PublishElection handles POST /elections/{id}/publish
func (h *ElectionHandler) PublishElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var status string
	var seats, candidateCount int
	err := h.db.QueryRow(`
		SELECT e.status, e.seats, COUNT(c.id)
		FROM election e
		LEFT JOIN candidate c ON c.election_id = e.id
		WHERE e.id = $1
		GROUP BY e.status, e.seats
	`, electionID).Scan(&status, &seats, &candidateCount)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not in draft status")
		return
	}
	if need := max(2, seats); candidateCount < need {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Election needs at least 2 candidates and one per seat")
		return
	}

	shareSlug := h.keys.ShareSlug(electionID)
	_, err = h.db.Exec(`
		UPDATE election SET status = $1, share_slug = $2 WHERE id = $3
	`, models.StatusOpen, shareSlug, electionID)
	if err != nil {
		slog.Error("failed to publish election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish election")
		return
	}

	slog.Info("election published", "election_id", electionID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusOK, models.PublishElectionResponse{
		ShareSlug: shareSlug,
		ShareURL:  strings.TrimSuffix(h.cfg.BaseURL, "/") + "/elections/" + shareSlug,
	})
}

// GetElectionAdmin handles GET /elections/{id}/admin
func (h *ElectionHandler) GetElectionAdmin(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	election, err := getElection(h.db, "id", electionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	candidates, err := loadCandidates(h.db, electionID)
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

// CloseElection handles POST /elections/{id}/close
// Counts the ballots and stores the result snapshot in the same transaction
// that closes the election.
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow("SELECT status FROM election WHERE id = $1", electionID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	}

	in, err := LoadCountInput(tx, electionID)
	if err != nil {
		slog.Error("failed to load ballots", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	snapshot, err := ComputeSTVResult(in)
	if err != nil {
		slog.Error("failed to count election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to count ballots")
		return
	}
	snapshot.ID = auth.NewRecordID()
	closedAt := snapshot.ComputedAt

	payload, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	res, err := tx.Exec(`
		UPDATE election
		SET status = $1, closed_at = $2, final_snapshot_id = $3
		WHERE id = $4 AND status = $5
	`, models.StatusClosed, closedAt, snapshot.ID, electionID, models.StatusOpen)
	if err == nil {
		err = requireOneRow(res)
	}
	if errors.Is(err, errNoRowsChanged) {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	}
	if err != nil {
		slog.Error("failed to close election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, election_id, method, computed_at, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, snapshot.ID, electionID, models.MethodSTV, closedAt, string(payload))
	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	slog.Info("election closed",
		"election_id", electionID,
		"snapshot_id", snapshot.ID,
		"elected", len(snapshot.Elected),
		"rounds", len(snapshot.Rounds),
	)

	middleware.JSONResponse(w, http.StatusOK, models.CloseElectionResponse{
		ClosedAt: closedAt,
		Snapshot: snapshot,
	})
}

var errNoRowsChanged = errors.New("no rows changed")

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return errNoRowsChanged
	}
	return nil
}

// getElection loads one election by id or share_slug
func getElection(q queryer, column, value string) (models.Election, error) {
	var e models.Election
	var description sql.NullString
	var closedAt sql.NullTime

	query := "SELECT " + electionColumns + " FROM election WHERE "
	switch column {
	case "id":
		query += "id = $1"
	case "share_slug":
		query += "share_slug = $1"
	default:
		return e, errors.New("unknown election key " + column)
	}

	err := q.QueryRow(query, value).Scan(
		&e.ID, &e.Title, &description, &e.CreatorName, &e.Method, &e.Seats,
		&e.Status, &e.ShareSlug, &closedAt, &e.FinalSnapshotID, &e.CreatedAt,
	)
	if err != nil {
		return e, err
	}

	e.Description = description.String
	if closedAt.Valid {
		e.ClosedAt = &closedAt.Time
	}
	return e, nil
}

// loadCandidates returns an election's candidates in ballot order
func loadCandidates(q queryer, electionID string) ([]models.Candidate, error) {
	rows, err := q.Query(`
		SELECT id, election_id, name, position
		FROM candidate
		WHERE election_id = $1
		ORDER BY position, id
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Position); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
