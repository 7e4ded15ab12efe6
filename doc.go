// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Count API server.

Quickly Count runs multi-seat elections with ranked ballots and counts them
by Single Transferable Vote with a Droop quota. The counting engine lives in
package stv; the server stores elections and ballots and runs the engine
when an election closes.

# Starting the Server

	DATABASE_URL=file:count.db ADMIN_KEY_SALT=... ELECTION_SLUG_SALT=... go run .

SQLite is the default store. For PostgreSQL:

	go run . -t postgres -d "postgres://..."

Settings not given as flags or environment variables are read from a .env
file (-env-file, default ".env").

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - ELECTION_SLUG_SALT (-slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (-base-url): Prefix for share links

# Architecture

  - stv: The counting engine, usable on its own
  - handlers: HTTP request handlers (elections, voting, results, count stream)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON and NDJSON helpers
  - models: Request/response types
  - auth: Keys, tokens and hashes
  - db: Connection and schema
  - cliparse: Configuration parsing
  - cmd/stvcount: Offline counting CLI
*/
package main
