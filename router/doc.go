// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Count API.

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Election management (admin, requires X-Admin-Key):

	POST /elections                 - Create election with a seat count
	GET  /elections/{id}/admin      - Election details and candidates
	POST /elections/{id}/candidates - Add candidate (draft only)
	POST /elections/{id}/publish    - Open for voting
	POST /elections/{id}/close      - Count ballots and seal results

Voting (public, uses share slug):

	POST /elections/{slug}/claim-username - Claim voter identity
	POST /elections/{slug}/ballots        - Submit/replace ranked ballot
	GET  /elections/{slug}/my-ballot      - Read back own ballot

Results (public):

	GET /elections/{slug}              - Election and candidates
	GET /elections/{slug}/results      - Final snapshot (closed only)
	GET /elections/{slug}/ballot-count - Ballots cast so far
	GET /elections/{slug}/preview      - Compact preview data
	GET /elections/{slug}/count        - Count replay as NDJSON (closed only)
*/
package router
