package storage

import (
	"context"
	"errors"
	"sync"

	"etbd/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.Run
	events      map[string]model.EventLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.Run)
	s.events = make(map[string]model.EventLog)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(); err != nil {
		return model.Run{}, false, err
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(); err != nil {
		return nil, err
	}
	runs := make([]model.Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRunsNewestFirst(runs)
	return runs, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	delete(s.runs, id)
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) SaveEvents(_ context.Context, runID string, events model.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	copied := make(model.EventLog, len(events))
	copy(copied, events)
	s.events[runID] = copied
	return nil
}

func (s *MemoryStore) GetEvents(_ context.Context, runID string) (model.EventLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.guard(); err != nil {
		return nil, false, err
	}
	events, ok := s.events[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make(model.EventLog, len(events))
	copy(copied, events)
	return copied, true, nil
}

// guard must be called with the mutex held.
func (s *MemoryStore) guard() error {
	if !s.initialized {
		return errors.New("store is not initialized")
	}
	return nil
}
