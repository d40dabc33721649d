package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSessionIDShape(t *testing.T) {
	req := require.New(t)

	id, err := NewSessionID()
	req.NoError(err)
	req.True(strings.HasPrefix(id, "anon_"))

	parts := strings.Split(id, "_")
	req.Len(parts, 3)
	req.Len(parts[2], sessionSuffixLength)
	for _, r := range parts[2] {
		req.Contains(sessionAlphabet, string(r))
	}
}

func TestNewSessionIDUniqueness(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewSessionID()
		req.NoError(err)
		req.False(seen[id], "duplicate session id %s", id)
		seen[id] = true
	}
}
