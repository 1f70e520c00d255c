package restserver

import (
	"sort"
	"sync"

	"github.com/chrissnell/pvyield/internal/simulation"
)

const defaultMaxRuns = 100

// RunStore keeps finished runs in memory. When full, the oldest run is
// evicted.
type RunStore struct {
	mu    sync.RWMutex
	max   int
	runs  map[string]*simulation.SystemResult
	order []string
}

// NewRunStore creates a store holding at most max runs. Zero selects a
// default.
func NewRunStore(max int) *RunStore {
	if max <= 0 {
		max = defaultMaxRuns
	}
	return &RunStore{
		max:  max,
		runs: make(map[string]*simulation.SystemResult),
	}
}

// Put adds or replaces a run.
func (s *RunStore) Put(r *simulation.SystemResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.RunID]; !exists {
		s.order = append(s.order, r.RunID)
	}
	s.runs[r.RunID] = r

	for len(s.order) > s.max {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns the run with id.
func (s *RunStore) Get(id string) (*simulation.SystemResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	return r, ok
}

// Delete removes a run and reports whether it existed.
func (s *RunStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return false
	}
	delete(s.runs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all runs, newest first.
func (s *RunStore) List() []*simulation.SystemResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*simulation.SystemResult, 0, len(s.runs))
	for _, id := range s.order {
		out = append(out, s.runs[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
