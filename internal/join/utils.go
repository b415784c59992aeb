package join

import "github.com/google/uuid"

// newRandomID produces a short unique identifier used for molecule
// instance IDs. Backed by google/uuid
// rather than hand-rolled crypto/rand+hex, matching the ID-generation
// library the rest of the retrieved corpus reaches for.
func newRandomID() string {
	return uuid.NewString()
}
