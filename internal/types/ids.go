package types

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

type SessionID string
type EventID string
type SourceID string
type TurnID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func NewTurnID() TurnID {
	return TurnID(uuid.New().String())
}

// NewEventID returns a random 10 hex character id for unstructured events.
func NewEventID() EventID {
	return EventID(randomHex(5))
}

// NewSourceID returns "S" followed by 8 hex characters.
func NewSourceID() SourceID {
	return SourceID("S" + randomHex(4))
}

// StableID derives a 12 hex character id from a title and body. Identical
// content always yields the identical id.
func StableID(title, body string) string {
	sum := sha256.Sum256([]byte(title + "|" + body))
	return hex.EncodeToString(sum[:])[:12]
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		u := uuid.New()
		copy(b, u[:])
	}
	return hex.EncodeToString(b)
}
