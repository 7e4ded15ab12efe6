// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

	conn, err := db.Open(cfg)

Open picks the driver from the configured database type:

  - "postgres": github.com/lib/pq
  - "sqlite" (default): modernc.org/sqlite, with foreign keys and a busy
    timeout enabled on every connection

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on both databases.

# Tables

  - election: Election metadata, seat count and lifecycle state
  - candidate: Candidates per election, in ballot-paper order
  - username_claim: Maps usernames to voter tokens
  - ballot: One ballot per voter per election
  - preference: Ranked choices of a ballot
  - result_snapshot: Immutable STV results

# Relationships

	election 1──* candidate
	election 1──* username_claim
	election 1──* ballot
	ballot 1──* preference *──1 candidate
	election 1──* result_snapshot

All foreign keys use ON DELETE CASCADE.
*/
package db
