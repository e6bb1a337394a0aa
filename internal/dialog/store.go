package dialog

import "sync"

// Store keeps per-chat dialogue state in memory and serializes update
// handling per chat: Lock must be held for the whole read-modify-write of a
// chat's state. Different chats proceed in parallel.
type Store struct {
	mu     sync.Mutex
	states map[int64]*State
	locks  map[int64]*sync.Mutex
}

// NewStore creates an empty dialogue store.
func NewStore() *Store {
	return &Store{
		states: make(map[int64]*State),
		locks:  make(map[int64]*sync.Mutex),
	}
}

// Lock acquires the chat's handler lock and returns the unlock function.
func (s *Store) Lock(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns the chat's state, or an idle Start state if none is stored.
func (s *Store) Get(chatID int64) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[chatID]; ok {
		return st
	}
	return &State{Step: StepStart}
}

// Set stores the chat's state.
func (s *Store) Set(chatID int64, st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[chatID] = st
}

// Clear drops the chat's state, returning it to idle.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
}
