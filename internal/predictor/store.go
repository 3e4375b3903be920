package predictor

import (
	"sync/atomic"
)

// Store holds the process-wide trained artifact. Predictions share one
// loaded artifact; retraining swaps in a complete new artifact atomically,
// so in-flight predictions never observe a partial model.
type Store struct {
	current atomic.Pointer[Artifact]
}

// NewStore creates an empty artifact store.
func NewStore() *Store {
	return &Store{}
}

// Load returns the current artifact, or nil when none has been set.
func (s *Store) Load() *Artifact {
	return s.current.Load()
}

// Swap installs a new artifact and returns the previous one (may be nil).
func (s *Store) Swap(artifact *Artifact) *Artifact {
	return s.current.Swap(artifact)
}

// LoadOrInit returns the current artifact, calling init to populate the
// store exactly when it is empty. Used to lazily restore the latest
// persisted artifact once per process.
func (s *Store) LoadOrInit(init func() (*Artifact, error)) (*Artifact, error) {
	if a := s.current.Load(); a != nil {
		return a, nil
	}
	a, err := init()
	if err != nil {
		return nil, err
	}
	// Another goroutine may have won the race; keep whichever landed first.
	if s.current.CompareAndSwap(nil, a) {
		return a, nil
	}
	return s.current.Load(), nil
}
