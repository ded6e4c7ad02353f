package sqlite

import (
	"sort"
	"sync"
)

// scopeLocks hands out one mutex per collection name. Transactions lock
// their declared collections in sorted order, so overlapping scopes
// serialize and disjoint scopes never deadlock.
type scopeLocks struct {
	mu    sync.Mutex
	byKey map[string]*sync.Mutex
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{byKey: make(map[string]*sync.Mutex)}
}

func (s *scopeLocks) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byKey[name]
	if !ok {
		m = &sync.Mutex{}
		s.byKey[name] = m
	}
	return m
}

// acquire locks every named collection and returns the release function.
func (s *scopeLocks) acquire(names []string) func() {
	sorted := dedupeSorted(names)
	held := make([]*sync.Mutex, 0, len(sorted))
	for _, name := range sorted {
		m := s.lockFor(name)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func dedupeSorted(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	n := 0
	for i, name := range out {
		if i > 0 && name == out[n-1] {
			continue
		}
		out[n] = name
		n++
	}
	return out[:n]
}
