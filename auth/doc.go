// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides election secrets, voter tokens and record IDs.

# Keyring

A Keyring holds the admin and slug salts from the configuration:

	keys := auth.NewKeyring(cfg.AdminKeySalt, cfg.ElectionSlugSalt)

Admin keys are HMAC-SHA256 of the election ID, URL-safe base64 without
padding. They are never stored; validation recomputes them:

	adminKey := keys.AdminKey(electionID)
	err := keys.CheckAdminKey(electionID, adminKey)

Share slugs are the first 8 bytes of an HMAC under the slug salt, base62
encoded:

	slug := keys.ShareSlug(electionID)

# Voter Tokens

Voter tokens are random 24-byte (192-bit) secrets handed out when a
username is claimed:

	token, err := auth.GenerateVoterToken()
	err = auth.CheckVoterToken(token)

# IDs

	id, err := auth.GenerateID(16) // 32 hex characters, elections and candidates
	id := auth.NewRecordID()       // UUID, ballots and result snapshots

# Inputs Hash

InputsHash fingerprints the ballot IDs behind a result so a snapshot can be
checked against the ballots still on record.
*/
package auth
