// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/quickly-count/models"
	"github.com/danielhkuo/quickly-count/testutil"
	"github.com/google/go-cmp/cmp"
)

// TestFullElectionWorkflow walks one election through its whole life:
// create, add candidates, publish, claim usernames, vote, revise a ballot,
// close, then read the results.
func TestFullElectionWorkflow(t *testing.T) {
	db, cfg := newTestEnv(t)
	elections := NewElectionHandler(db, cfg)
	voting := NewVotingHandler(db, cfg)
	results := NewResultsHandler(db, cfg)

	// Create a two-seat election
	w := serve(elections.CreateElection, testutil.MakeRequest("POST", "/elections", models.CreateElectionRequest{
		Title:       "Committee",
		Description: "Two seats",
		CreatorName: "Organiser",
		Seats:       2,
	}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.CreateElectionResponse
	testutil.AssertJSON(t, w, &created)
	electionID, admin := created.ElectionID, adminHeader(created.AdminKey)

	// Add candidates
	ids := map[string]string{}
	for _, name := range []string{"Ana", "Ben", "Cy", "Dee"} {
		req := testutil.MakeRequest("POST", "/elections/"+electionID+"/candidates", models.AddCandidateRequest{Name: name}, admin)
		w := serve(elections.AddCandidate, req, "id", electionID)
		if w.Code != http.StatusCreated {
			t.Fatalf("Add candidate %s failed: %d - %s", name, w.Code, w.Body.String())
		}
		var resp models.AddCandidateResponse
		testutil.AssertJSON(t, w, &resp)
		ids[name] = resp.CandidateID
	}

	// Publish
	w = serve(elections.PublishElection, testutil.MakeRequest("POST", "/elections/"+electionID+"/publish", nil, admin), "id", electionID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var published models.PublishElectionResponse
	testutil.AssertJSON(t, w, &published)
	slug := published.ShareSlug

	// Results stay sealed while voting is open
	w = serve(results.GetResults, testutil.MakeRequest("GET", "/elections/"+slug+"/results", nil, nil), "slug", slug)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	// Voters claim usernames and vote
	ballots := map[string][]string{
		"v1": {"Ana", "Ben"},
		"v2": {"Ana", "Ben"},
		"v3": {"Ana", "Cy"},
		"v4": {"Ana"},
		"v5": {"Ben", "Ana"},
		"v6": {"Cy", "Dee"},
		"v7": {"Dee", "Cy"},
		"v8": {"Dee"},
		"v9": {"Cy"},
	}
	tokens := map[string]string{}
	for _, voter := range []string{"v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8", "v9"} {
		req := testutil.MakeRequest("POST", "/elections/"+slug+"/claim-username", models.ClaimUsernameRequest{Username: voter}, nil)
		w := serve(voting.ClaimUsername, req, "slug", slug)
		testutil.AssertStatus(t, w, http.StatusCreated)
		var claim models.ClaimUsernameResponse
		testutil.AssertJSON(t, w, &claim)
		tokens[voter] = claim.VoterToken

		var rankings []string
		for _, name := range ballots[voter] {
			rankings = append(rankings, ids[name])
		}
		req = testutil.MakeRequest("POST", "/elections/"+slug+"/ballots", models.SubmitBallotRequest{Rankings: rankings}, voterHeader(claim.VoterToken))
		testutil.AssertStatus(t, serve(voting.SubmitBallot, req, "slug", slug), http.StatusCreated)
	}

	// v9 changes their mind
	req := testutil.MakeRequest("POST", "/elections/"+slug+"/ballots",
		models.SubmitBallotRequest{Rankings: []string{ids["Dee"]}}, voterHeader(tokens["v9"]))
	testutil.AssertStatus(t, serve(voting.SubmitBallot, req, "slug", slug), http.StatusCreated)

	w = serve(voting.GetMyBallot, testutil.MakeRequest("GET", "/elections/"+slug+"/my-ballot", nil, voterHeader(tokens["v9"])), "slug", slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var mine models.MyBallotResponse
	testutil.AssertJSON(t, w, &mine)
	if diff := cmp.Diff([]string{ids["Dee"]}, mine.Rankings); diff != "" {
		t.Errorf("Revised ballot mismatch (-want +got):\n%s", diff)
	}

	// Close and count
	w = serve(elections.CloseElection, testutil.MakeRequest("POST", "/elections/"+electionID+"/close", nil, admin), "id", electionID)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Read the results
	w = serve(results.GetResults, testutil.MakeRequest("GET", "/elections/"+slug+"/results", nil, nil), "slug", slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var res models.ResultsResponse
	testutil.AssertJSON(t, w, &res)

	// 9 valid ballots for 2 seats: quota 4. Ana reaches it at once. Ben and
	// Cy tie at the bottom and go out together; Cy's transfer lifts Dee to 4.
	if res.Snapshot.Quota != 4 {
		t.Errorf("Expected quota 4, got %d", res.Snapshot.Quota)
	}
	if diff := cmp.Diff([]string{ids["Ana"], ids["Dee"]}, res.Snapshot.Elected); diff != "" {
		t.Errorf("Elected mismatch (-want +got):\n%s", diff)
	}
	if res.BallotCount != 9 {
		t.Errorf("Expected 9 ballots, got %d", res.BallotCount)
	}

	// Voting is over
	req = testutil.MakeRequest("POST", "/elections/"+slug+"/ballots",
		models.SubmitBallotRequest{Rankings: []string{ids["Ben"]}}, voterHeader(tokens["v1"]))
	testutil.AssertStatus(t, serve(voting.SubmitBallot, req, "slug", slug), http.StatusConflict)
}
