package app

import (
	"sync/atomic"

	"github.com/ambergate/ambergate/internal/gateway"
)

// Health tracks the application's readiness for the /readyz endpoint. All
// methods are thread-safe.
type Health struct {
	ready atomic.Bool
}

var _ gateway.ReadinessChecker = (*Health)(nil)

// NewHealth creates a new Health instance initialized as not ready.
func NewHealth() *Health {
	return &Health{}
}

// SetReady updates the application's readiness state.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns the current readiness state of the application.
func (h *Health) IsReady() bool {
	return h.ready.Load()
}
