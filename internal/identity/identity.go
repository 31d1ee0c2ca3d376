// Package identity generates the stable identifiers used across the logs
// database: response ids, conversation ids, and derived conversation names.
package identity

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewResponseID generates a unique response id.
// Format: lowercased ULID, e.g. "01jm3x7v9k2q8r5s0t1u2v3w4x".
// Lowercase matches the ids written by the llm logging schema, and ULIDs
// sort lexically by creation time so sibling ordering stays chronological.
func NewResponseID() string {
	return generateULID()
}

// NewConversationID generates a unique conversation id.
// Same format as response ids.
func NewConversationID() string {
	return generateULID()
}

// generateULID returns a lowercased monotonic ULID. The shared entropy
// source guarantees strictly increasing ids within one process even when
// two ids land in the same millisecond.
func generateULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy)
	return strings.ToLower(id.String())
}

// ConversationName derives a display name from the first prompt of a
// conversation: the first line, truncated to 32 characters.
func ConversationName(prompt string) string {
	name := prompt
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > 32 {
		name = string(runes[:32])
	}
	return name
}
