package store

import (
	"sync"
)

// Store owns the session State and serializes dispatches. Subscribers are
// notified synchronously with the post-dispatch snapshot; they must not
// dispatch re-entrantly.
type Store struct {
	mu          sync.RWMutex
	state       State
	nextSubID   int
	subscribers map[int]func(State)
}

func New() *Store {
	return &Store{
		state:       InitialState(),
		subscribers: map[int]func(State){},
	}
}

// Dispatch applies the action through Reduce and notifies subscribers.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// State returns the current snapshot. The contained slices and maps are
// treated as immutable by all readers.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for post-dispatch snapshots and returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}
