// Package uuid provides call and trace ID generation and test utilities.
package uuid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// IDer generates identifiers.
type IDer interface {
	ID() string
}

// UUID is an ID generator utilizing a random UUID.
type UUID struct{}

// NewUUID creates a new UUID ID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// ID generates a new UUID ID.
func (u *UUID) ID() string {
	return uuid.NewString()
}

// TraceID returns a short hex trace ID for HTTP request logging.
func (u *UUID) TraceID(_ *http.Request) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// StaticIDs is an ID generator that cycles through provided IDs.
type StaticIDs struct {
	ids []string
	i   int
}

// NewStaticIDs creates a new static ID generator.
func NewStaticIDs(ids ...string) *StaticIDs {
	return &StaticIDs{ids: ids}
}

// ID returns the next ID.
// It will continually cycle through the IDs.
func (s *StaticIDs) ID() string {
	id := s.ids[s.i%len(s.ids)]
	s.i++
	return id
}
