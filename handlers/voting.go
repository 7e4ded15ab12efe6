// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/quickly-count/auth"
	"github.com/danielhkuo/quickly-count/cliparse"
	"github.com/danielhkuo/quickly-count/middleware"
	"github.com/danielhkuo/quickly-count/models"
)

type VotingHandler struct {
	db   *sql.DB
	cfg  cliparse.Config
	keys auth.Keyring
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{
		db:   db,
		cfg:  cfg,
		keys: auth.NewKeyring(cfg.AdminKeySalt, cfg.ElectionSlugSalt),
	}
}

// electionBySlug resolves the slug in the path to an election ID and status.
// It writes the error response itself and returns false on failure.
func electionBySlug(w http.ResponseWriter, db *sql.DB, r *http.Request) (id, status string, ok bool) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return "", "", false
	}

	err := db.QueryRow(`
		SELECT id, status FROM election WHERE share_slug = $1
	`, shareSlug).Scan(&id, &status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return "", "", false
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", "", false
	}

	return id, status, true
}

// ClaimUsername handles POST /elections/{slug}/claim-username
func (h *VotingHandler) ClaimUsername(w http.ResponseWriter, r *http.Request) {
	var req models.ClaimUsernameRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if n := utf8.RuneCountInString(req.Username); n < 2 || n > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}

	electionID, status, ok := electionBySlug(w, h.db, r)
	if !ok {
		return
	}
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	voterToken, err := auth.GenerateVoterToken()
	if err != nil {
		slog.Error("failed to generate voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to claim username")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO username_claim (election_id, username, voter_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, electionID, req.Username, voterToken, time.Now().UTC())
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
		return
	}
	if err != nil {
		slog.Error("failed to insert username claim", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to claim username")
		return
	}

	slog.Info("username claimed", "election_id", electionID, "username", req.Username)

	middleware.JSONResponse(w, http.StatusCreated, models.ClaimUsernameResponse{
		VoterToken: voterToken,
	})
}

// checkVoter confirms the X-Voter-Token header belongs to a claim on the
// election. It writes the error response itself and returns false on failure.
func checkVoter(w http.ResponseWriter, db *sql.DB, r *http.Request, electionID string) (string, bool) {
	voterToken := r.Header.Get("X-Voter-Token")
	if err := auth.CheckVoterToken(voterToken); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return "", false
	}

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM username_claim
			WHERE election_id = $1 AND voter_token = $2
		)
	`, electionID, voterToken).Scan(&exists)
	if err != nil {
		slog.Error("failed to verify voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", false
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token for this election")
		return "", false
	}

	return voterToken, true
}

// SubmitBallot handles POST /elections/{slug}/ballots
// Rankings list candidate IDs first choice first. Resubmitting replaces the
// voter's earlier ballot.
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	electionID, status, ok := electionBySlug(w, h.db, r)
	if !ok {
		return
	}
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	voterToken, ok := checkVoter(w, h.db, r, electionID)
	if !ok {
		return
	}

	candidates, err := loadCandidates(h.db, electionID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		valid[c.ID] = true
	}

	seen := make(map[string]bool, len(req.Rankings))
	for _, candidateID := range req.Rankings {
		if !valid[candidateID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid candidate_id: "+candidateID)
			return
		}
		if seen[candidateID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Candidate ranked more than once: "+candidateID)
			return
		}
		seen[candidateID] = true
	}

	ipHash := h.keys.HashIP(middleware.GetClientIP(r))
	userAgent := r.UserAgent()
	now := time.Now().UTC()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var ballotID string
	err = tx.QueryRow(`
		SELECT id FROM ballot WHERE election_id = $1 AND voter_token = $2
	`, electionID, voterToken).Scan(&ballotID)

	isUpdate := err == nil
	switch {
	case isUpdate:
		_, err = tx.Exec(`
			UPDATE ballot SET submitted_at = $1, ip_hash = $2, user_agent = $3 WHERE id = $4
		`, now, ipHash, userAgent, ballotID)
		if err == nil {
			_, err = tx.Exec(`DELETE FROM preference WHERE ballot_id = $1`, ballotID)
		}
	case err == sql.ErrNoRows:
		ballotID = auth.NewRecordID()
		_, err = tx.Exec(`
			INSERT INTO ballot (id, election_id, voter_token, submitted_at, ip_hash, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ballotID, electionID, voterToken, now, ipHash, userAgent)
	}
	if err != nil {
		slog.Error("failed to store ballot", "error", err, "is_update", isUpdate)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	for i, candidateID := range req.Rankings {
		_, err = tx.Exec(`
			INSERT INTO preference (ballot_id, rank, candidate_id)
			VALUES ($1, $2, $3)
		`, ballotID, i+1, candidateID)
		if err != nil {
			slog.Error("failed to insert preference", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save rankings")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	message := "Ballot submitted successfully"
	if isUpdate {
		message = "Ballot updated successfully"
	}

	slog.Info("ballot submitted",
		"election_id", electionID,
		"ballot_id", ballotID,
		"preferences", len(req.Rankings),
		"is_update", isUpdate,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		BallotID: ballotID,
		Message:  message,
	})
}

// GetMyBallot handles GET /elections/{slug}/my-ballot
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	electionID, _, ok := electionBySlug(w, h.db, r)
	if !ok {
		return
	}

	voterToken, ok := checkVoter(w, h.db, r, electionID)
	if !ok {
		return
	}

	resp := models.MyBallotResponse{Rankings: []string{}}
	err := h.db.QueryRow(`
		SELECT id, submitted_at FROM ballot WHERE election_id = $1 AND voter_token = $2
	`, electionID, voterToken).Scan(&resp.BallotID, &resp.SubmittedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No ballot submitted yet")
		return
	}
	if err != nil {
		slog.Error("failed to query ballot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT candidate_id FROM preference WHERE ballot_id = $1 ORDER BY rank
	`, resp.BallotID)
	if err != nil {
		slog.Error("failed to query preferences", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var candidateID string
		if err := rows.Scan(&candidateID); err != nil {
			slog.Error("failed to scan preference", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		resp.Rankings = append(resp.Rankings, candidateID)
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
