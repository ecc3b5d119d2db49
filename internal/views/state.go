package views

import "sync"

// Phase is the tag of a State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is an immutable view of a State. Value is only meaningful when
// Phase is PhaseLoaded and Err only when Phase is PhaseFailed.
type Snapshot[T any] struct {
	Phase Phase
	Value T
	Err   error
}

// Loaded reports whether the snapshot carries a value.
func (s Snapshot[T]) Loaded() bool { return s.Phase == PhaseLoaded }

// Failed reports whether the snapshot carries an error.
func (s Snapshot[T]) Failed() bool { return s.Phase == PhaseFailed }

// Generation identifies one load attempt.
type Generation uint64

// State is an Idle | Loading | Loaded | Failed union guarded by a
// generation counter: only the most recent Begin may settle it.
type State[T any] struct {
	mu      sync.Mutex
	gen     Generation
	current Snapshot[T]
}

// Begin moves to Loading and returns the generation that may settle it.
func (s *State[T]) Begin() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	var zero T
	s.current = Snapshot[T]{Phase: PhaseLoading, Value: zero}
	return s.gen
}

// Finish settles the state with value or err. It reports false and leaves
// the state untouched when gen has been superseded.
func (s *State[T]) Finish(gen Generation, value T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	if err != nil {
		var zero T
		s.current = Snapshot[T]{Phase: PhaseFailed, Value: zero, Err: err}
		return true
	}
	s.current = Snapshot[T]{Phase: PhaseLoaded, Value: value}
	return true
}

// Reset returns to Idle and invalidates in-flight loads.
func (s *State[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.current = Snapshot[T]{}
}

// Snapshot returns the current state.
func (s *State[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
