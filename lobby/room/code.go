package room

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// CodeLength is the number of characters in a room code.
const CodeLength = 6

// NewCode generates a short uppercase hex room code suitable for typing
// or reading aloud. Codes are random but not guaranteed unique; the
// registry retries on collision.
func NewCode() string {
	bytes := make([]byte, CodeLength/2)
	rand.Read(bytes)
	return strings.ToUpper(hex.EncodeToString(bytes))
}
