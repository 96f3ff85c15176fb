// Package auth checks administrator credentials against a flat file of
// username:salted_hash records.
package auth

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

// saltLen is the length of the salt prefix carried by every stored hash.
const saltLen = 5

// Verifier authenticates administrators against a credential file.
type Verifier struct {
	path string
}

// NewVerifier creates a verifier reading the given credential file. The file
// is re-read on every call, so edits take effect without a restart.
func NewVerifier(path string) *Verifier {
	return &Verifier{path: path}
}

// HashPassword derives the stored form of a password for the given salt.
// The salt is kept as the prefix of the result so Authenticate can recover it.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return salt + hex.EncodeToString(sum[:])
}

// Authenticate reports whether the username/password pair matches the
// credential file. The first line containing a colon decides the outcome:
// if its username differs from the requested one the result is false without
// reading further lines. A missing file, a file with no colon-bearing lines,
// or a malformed record all yield false. Never returns an error.
//
// Scanning stops at the first record on purpose; see DESIGN.md for the open
// question around multi-user credential files.
func (v *Verifier) Authenticate(username, password string) bool {
	f, err := os.Open(v.path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, ":") {
			continue
		}

		user, storedHash, _ := strings.Cut(line, ":")
		storedHash = strings.Trim(storedHash, " \n")
		if user != username {
			return false
		}
		if len(storedHash) < saltLen {
			return false
		}

		salt := storedHash[:saltLen]
		return HashPassword(password, salt) == storedHash
	}

	return false
}
