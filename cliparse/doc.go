// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - AdminKeySalt: Secret for admin key HMAC (required)
  - ElectionSlugSalt: Secret for share slug generation (required)
  - BaseURL: Public URL used to build share links

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type
	--base-url    Public base URL
	--env-file    Dotenv file (default: .env)
	--admin-salt  Admin key salt
	--slug-salt   Election slug salt

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t
	BASE_URL           → --base-url
	ADMIN_KEY_SALT     → --admin-salt
	ELECTION_SLUG_SALT → --slug-salt

Variables missing from the environment are read from the dotenv file if it
exists. CLI flags take precedence over environment variables, which take
precedence over the file.

# Validation

ParseFlags returns an error if required values are missing or the database
type is not supported.
*/
package cliparse
