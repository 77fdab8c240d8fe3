package dispatch

import (
	"sync"

	"github.com/ambergate/ambergate/internal/translator"
)

// Sessions owns the process-wide sessionId → *translator.StreamState map:
// every entry is created by exactly one request task and deleted on that
// task's completion, error, or client disconnect. The map itself is safe
// for concurrent use; a single entry is not meant to be touched by more
// than one goroutine at a time.
type Sessions struct {
	m sync.Map
}

// NewSessions builds an empty session table.
func NewSessions() *Sessions {
	return &Sessions{}
}

// Create allocates and stores a fresh StreamState for id.
func (s *Sessions) Create(id string) *translator.StreamState {
	state := translator.NewStreamState(id)
	s.m.Store(id, state)
	return state
}

// Delete removes id's entry, if any. Safe to call more than once.
func (s *Sessions) Delete(id string) {
	s.m.Delete(id)
}
