// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreateElectionRequest: title, description, creator_name, seats
  - AddCandidateRequest: name
  - ClaimUsernameRequest: username
  - SubmitBallotRequest: rankings (candidate IDs, first choice first)

# Response Types

  - CreateElectionResponse: election_id, admin_key
  - AddCandidateResponse: candidate_id
  - PublishElectionResponse: share_slug, share_url
  - ClaimUsernameResponse: voter_token
  - SubmitBallotResponse: ballot_id, message
  - MyBallotResponse: ballot_id, rankings, submitted_at
  - CloseElectionResponse: closed_at, snapshot
  - ResultsResponse: election, snapshot, ballot_count
  - ErrorResponse: error, message

# Domain Types

  - Election: election metadata, seat count and lifecycle state
  - Candidate: a name on the ballot paper
  - Ballot: voter submission metadata
  - CandidateResult: tally and outcome for one candidate
  - ResultSnapshot: immutable result record, including the round history

Round records inside a snapshot are stv.Round values keyed by candidate ID.

# Constants

Status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

Counting method:

	MethodSTV = "stv"
*/
package models
