// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/quickly-count/stv"
)

const sampleElection = `{
	"candidates": ["A", "B", "C"],
	"seats": 1,
	"ballots": [{"1": "A"}, {"1": "A", "2": "B"}, {"1": "B"}, {}]
}`

func writeElection(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "election.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := getCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	path := writeElection(t, sampleElection)

	out, err := execute(t, "", "run", path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, want := range []string{
		"First preferences (1 invalid):",
		"Quota: 2",
		"A elected to the 1st seat with 2 votes",
		"Round 1:",
		"Elected: A\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "unfilled") {
		t.Errorf("Expected every seat filled, got:\n%s", out)
	}
}

func TestRunCommandJSON(t *testing.T) {
	out, err := execute(t, sampleElection, "run", "--json", "-")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var names []string
	var last stv.Event
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var ev stv.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("Invalid event line %q: %v", sc.Text(), err)
		}
		names = append(names, ev.Name)
		last = ev
	}

	want := []string{
		stv.EventTally, stv.EventTally, stv.EventTally, stv.EventInvalidBallot,
		stv.EventTallyComplete, stv.EventQuota,
		stv.EventMetQuota, stv.EventNotMetQuota, stv.EventElected, stv.EventCountComplete,
		stv.EventComplete,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Event order mismatch (-want +got):\n%s", diff)
	}

	complete, ok := last.Data.(stv.CompleteData)
	if !ok {
		t.Fatalf("Expected CompleteData, got %T", last.Data)
	}
	if diff := cmp.Diff([]string{"A"}, complete.Seats); diff != "" {
		t.Errorf("Seats mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCommandElimination(t *testing.T) {
	path := writeElection(t, `{
		"candidates": ["A", "B", "C"],
		"seats": 1,
		"ballots": [{"1": "A"}, {"1": "A"}, {"1": "B"}, {"1": "B"}, {"1": "C", "2": "B"}]
	}`)

	out, err := execute(t, "", "run", path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, want := range []string{
		"Quota: 3",
		"  C eliminated\n",
		"    elimination transfer: B +1\n",
		"Round 2:",
		"B elected to the 1st seat with 3 votes\n",
		"Elected: B\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunCommandUnfilledSeat(t *testing.T) {
	// B and C tie for the second seat and go out together
	path := writeElection(t, `{
		"candidates": ["A", "B", "C"],
		"seats": 2,
		"ballots": [{"1": "A"}, {"1": "A"}, {"1": "A"}, {"1": "B"}, {"1": "B"}, {"1": "C"}, {"1": "C"}]
	}`)

	out, err := execute(t, "", "run", path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "Elected: A\n1 seat left unfilled\n") {
		t.Errorf("Expected an unfilled seat, got:\n%s", out)
	}
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{"malformed json", `{"candidates": [`, "failed to parse"},
		{"no candidates", `{"candidates": [], "seats": 1}`, "no candidates"},
		{"too many seats", `{"candidates": ["A"], "seats": 2}`, "invalid number of seats"},
		{"duplicate candidate", `{"candidates": ["A", "A"], "seats": 1}`, "duplicate candidate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeElection(t, tt.contents)
			_, err := execute(t, "", "run", path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := execute(t, "", "run", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestQuotaCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single seat", []string{"--ballots", "100", "--seats", "1"}, "Droop quota for 100 ballots and 1 seat: 51\n"},
		{"large", []string{"--ballots", "12000", "--seats", "3"}, "Droop quota for 12,000 ballots and 3 seats: 3,001\n"},
		{"no ballots", []string{"--ballots", "0"}, "Droop quota for 0 ballots and 1 seat: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", append([]string{"quota"}, tt.args...)...)
			if err != nil {
				t.Fatalf("quota failed: %v", err)
			}
			if out != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}

	if _, err := execute(t, "", "quota", "--ballots", "10", "--seats", "0"); err == nil {
		t.Error("Expected error for zero seats")
	}
	if _, err := execute(t, "", "quota"); err == nil {
		t.Error("Expected error without --ballots")
	}
}
