package journal

import "sync"

// scopeLocks hands out one RWMutex per scope. Writers hold the write
// lock across their whole read-modify-write; readers share. This only
// coordinates goroutines in one process.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[Scope]*sync.RWMutex
}

func (s *scopeLocks) get(scope Scope) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks == nil {
		s.locks = make(map[Scope]*sync.RWMutex)
	}
	l, ok := s.locks[scope]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[scope] = l
	}
	return l
}

func (s *scopeLocks) lock(scope Scope) func() {
	l := s.get(scope)
	l.Lock()
	return l.Unlock
}

func (s *scopeLocks) rlock(scope Scope) func() {
	l := s.get(scope)
	l.RLock()
	return l.RUnlock
}
