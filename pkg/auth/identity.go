package auth

import (
	"crypto/rand"
	"fmt"
	"time"
)

// RoleParticipant is the single role every session carries.
const RoleParticipant = "participant"

const (
	sessionAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	sessionSuffixLength = 9
)

// NewSessionID builds an ephemeral identity of the form
// anon_<unix-ms>_<random suffix>. The timestamp prefix plus 36^9 random
// suffixes keeps the collision probability negligible; callers that need a
// hard guarantee reserve the id afterwards.
func NewSessionID() (string, error) {
	buf := make([]byte, sessionSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	suffix := make([]byte, sessionSuffixLength)
	for i, b := range buf {
		suffix[i] = sessionAlphabet[int(b)%len(sessionAlphabet)]
	}

	return fmt.Sprintf("anon_%d_%s", time.Now().UnixMilli(), suffix), nil
}
