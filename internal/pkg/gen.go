package pkg

import "github.com/google/uuid"

// NewGameID - generates an opaque collision-resistant game id.
func NewGameID() string {
	return uuid.NewString()
}
