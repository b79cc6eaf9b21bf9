package uid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator assigns opaque, unique object UIDs. The generator is injected
// into the session rather than accessed globally so tests and lesson replays
// stay reproducible.
type Generator interface {
	// NewUID returns the next unique identifier.
	NewUID() string
}

// Sequence is a pure-counter generator producing uid-1, uid-2, ... in order.
// It is the default for simulation sessions so object identities are stable
// across replays of the same command sequence.
type Sequence struct {
	next uint64
}

// NewSequence creates a sequence generator starting at 1.
func NewSequence() *Sequence {
	return &Sequence{next: 1}
}

// NewSequenceAt creates a sequence generator resuming from a saved counter.
func NewSequenceAt(next uint64) *Sequence {
	if next == 0 {
		next = 1
	}
	return &Sequence{next: next}
}

// NewUID returns the next counter-based identifier.
func (s *Sequence) NewUID() string {
	id := fmt.Sprintf("uid-%d", s.next)
	s.next++
	return id
}

// Next returns the counter value the generator will use next, for checkpointing.
func (s *Sequence) Next() uint64 {
	return s.next
}

// Random generates UUIDv4 identifiers.
type Random struct{}

// NewUID returns a random UUID string.
func (Random) NewUID() string {
	return uuid.New().String()
}
