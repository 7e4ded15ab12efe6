// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-count/auth"
	"github.com/danielhkuo/quickly-count/cliparse"
	"github.com/danielhkuo/quickly-count/db"
	"github.com/danielhkuo/quickly-count/models"
)

// GetTestConfig returns a standard test configuration backed by a fresh
// SQLite file in the test's temp directory
func GetTestConfig(t *testing.T) cliparse.Config {
	t.Helper()

	return cliparse.Config{
		Port:             3318,
		DatabaseType:     cliparse.DatabaseSQLite,
		DatabaseURL:      "file:" + filepath.Join(t.TempDir(), "test.db"),
		AdminKeySalt:     "test-admin-salt",
		ElectionSlugSalt: "test-slug-salt",
		BaseURL:          "https://quickly-count.test",
	}
}

// SetupTestDB opens the test database with the full schema and closes it
// when the test ends
func SetupTestDB(t *testing.T, cfg cliparse.Config) *sql.DB {
	t.Helper()

	conn, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// CreateTestElection creates an election and returns its ID, admin key and
// share slug. status should be "draft", "open", or "closed"; draft elections
// have no slug.
func CreateTestElection(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string, seats int) (electionID, adminKey, shareSlug string) {
	t.Helper()

	keys := auth.NewKeyring(cfg.AdminKeySalt, cfg.ElectionSlugSalt)
	electionID, _ = auth.GenerateID(16)
	adminKey = keys.AdminKey(electionID)

	var slug *string
	if status == models.StatusOpen || status == models.StatusClosed {
		shareSlug = keys.ShareSlug(electionID)
		slug = &shareSlug
	}

	var closedAt *time.Time
	if status == models.StatusClosed {
		now := time.Now().UTC()
		closedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, title, description, creator_name, method, seats, status, share_slug, closed_at, created_at)
		VALUES ($1, 'Test Election', 'A test election', 'TestUser', 'stv', $2, $3, $4, $5, $6)
	`, electionID, seats, status, slug, closedAt, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID, adminKey, shareSlug
}

// SetTestStatus moves an election to a new status without counting
func SetTestStatus(t *testing.T, conn *sql.DB, electionID, status string) {
	t.Helper()

	if _, err := conn.Exec("UPDATE election SET status = $1 WHERE id = $2", status, electionID); err != nil {
		t.Fatalf("Failed to update election status: %v", err)
	}
}

// AddTestCandidate appends a candidate to an election and returns its ID
func AddTestCandidate(t *testing.T, conn *sql.DB, electionID, name string) string {
	t.Helper()

	candidateID := auth.NewRecordID()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, election_id, name, position)
		VALUES ($1, $2, $3, (SELECT COUNT(*) + 1 FROM candidate WHERE election_id = $2))
	`, candidateID, electionID, name)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// CreateTestVoter claims a username for an election and returns the voter token
func CreateTestVoter(t *testing.T, conn *sql.DB, electionID, username string) string {
	t.Helper()

	voterToken, _ := auth.GenerateVoterToken()
	_, err := conn.Exec(`
		INSERT INTO username_claim (election_id, username, voter_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, electionID, username, voterToken, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	return voterToken
}

// SubmitTestBallot stores a ballot ranking candidateIDs first choice first
func SubmitTestBallot(t *testing.T, conn *sql.DB, electionID, voterToken string, candidateIDs ...string) string {
	t.Helper()

	ballotID := auth.NewRecordID()
	_, err := conn.Exec(`
		INSERT INTO ballot (id, election_id, voter_token, submitted_at)
		VALUES ($1, $2, $3, $4)
	`, ballotID, electionID, voterToken, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}

	for i, candidateID := range candidateIDs {
		_, err := conn.Exec(`
			INSERT INTO preference (ballot_id, rank, candidate_id)
			VALUES ($1, $2, $3)
		`, ballotID, i+1, candidateID)
		if err != nil {
			t.Fatalf("Failed to create test preference: %v", err)
		}
	}

	return ballotID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
