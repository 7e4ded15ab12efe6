// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Count API.

# Handler Types

  - ElectionHandler: Election lifecycle (create, candidates, publish, close)
  - VotingHandler: Username claims and ranked ballots
  - ResultsHandler: Election info, sealed results and the count stream

Each is built from the database and config:

	electionHandler := handlers.NewElectionHandler(db, cfg)

# Election Lifecycle

Elections move draft → open → closed. Publishing needs at least two
candidates and at least one per seat. Closing loads every ballot, runs the
STV count and stores the snapshot in the same transaction that seals the
election.

Admin operations require the X-Admin-Key header; voter operations require
X-Voter-Token.

# Counting

	in, err := handlers.LoadCountInput(db, electionID)
	snapshot, err := handlers.ComputeSTVResult(in)

The engine sees candidates by ID in position order. A ballot with no
preferences is passed through empty and counted as invalid.

StreamCount replays the count of a closed election as NDJSON, one event per
line, and stops when the client disconnects.
*/
package handlers
