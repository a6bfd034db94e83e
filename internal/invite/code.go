// Package invite mints the one-time credentials members redeem to join a
// group roster.
package invite

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// Alphabet excludes visually confusable characters (0/O, 1/I) so codes
// survive being read aloud or typed from a printout.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the length of a one-time invitation code
const CodeLength = 6

// NewCode generates a random invitation code
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation code: %w", err)
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf), nil
}

// NewInvitationID generates the invitation's primary key
func NewInvitationID() uuid.UUID {
	return uuid.New()
}
