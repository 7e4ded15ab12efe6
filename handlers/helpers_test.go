// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-count/cliparse"
	"github.com/danielhkuo/quickly-count/testutil"
)

func newTestEnv(t *testing.T) (*sql.DB, cliparse.Config) {
	t.Helper()
	cfg := testutil.GetTestConfig(t)
	return testutil.SetupTestDB(t, cfg), cfg
}

// serve runs handler against a request with the given path values set
func serve(handler http.HandlerFunc, req *http.Request, pathValues ...string) *httptest.ResponseRecorder {
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func adminHeader(key string) map[string]string {
	return map[string]string{"X-Admin-Key": key}
}

func voterHeader(token string) map[string]string {
	return map[string]string{"X-Voter-Token": token}
}
