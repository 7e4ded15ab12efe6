// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
)

const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Keyring derives the per-election secrets from the configured salts.
type Keyring struct {
	adminSalt []byte
	slugSalt  []byte
}

func NewKeyring(adminSalt, slugSalt string) Keyring {
	return Keyring{adminSalt: []byte(adminSalt), slugSalt: []byte(slugSalt)}
}

// AdminKey returns the deterministic admin key of an election
func (k Keyring) AdminKey(electionID string) string {
	return base64.RawURLEncoding.EncodeToString(sign(k.adminSalt, electionID))
}

// CheckAdminKey compares adminKey to the election's key in constant time
func (k Keyring) CheckAdminKey(electionID, adminKey string) error {
	if !hmac.Equal([]byte(adminKey), []byte(k.AdminKey(electionID))) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ShareSlug returns a short alphanumeric slug for an election.
// The first 8 bytes of the HMAC are enough to keep slugs unique.
func (k Keyring) ShareSlug(electionID string) string {
	sum := sign(k.slugSalt, electionID)
	return base62(binary.BigEndian.Uint64(sum[:8]))
}

// HashIP returns 64 bits of a salted hash of ip, enough for deduplication
func (k Keyring) HashIP(ip string) string {
	return hex.EncodeToString(sign(k.adminSalt, "ip:"+ip)[:8])
}

func sign(key []byte, msg string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return h.Sum(nil)
}

func base62(num uint64) string {
	if num == 0 {
		return "0"
	}

	var out []byte
	for ; num > 0; num /= 62 {
		out = append(out, base62Chars[num%62])
	}
	slices.Reverse(out)
	return string(out)
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewRecordID returns a random UUID for ballots and result snapshots
func NewRecordID() string {
	return uuid.NewString()
}

// GenerateVoterToken creates a random 192-bit token identifying a voter
func GenerateVoterToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CheckVoterToken rejects values that cannot have come from GenerateVoterToken
func CheckVoterToken(token string) error {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(b) != 24 {
		return ErrInvalidToken
	}
	return nil
}

// InputsHash fingerprints the set of ballots a result was computed from
func InputsHash(ballotIDs []string) string {
	if len(ballotIDs) == 0 {
		return "no-ballots"
	}

	sorted := slices.Clone(ballotIDs)
	slices.Sort(sorted)

	h := sha256.New()
	for _, id := range sorted {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
