package repository

import (
	"fmt"
	"sync"

	"github.com/xiaot623/algostream/internal/domain"
)

type runRecord struct {
	run         *domain.Run
	currentStep int
	signals     map[int]domain.BehaviorSignal
}

// MemoryStore implements RunStore in process memory. Reads take the shared
// lock; run creation and signal writes take the exclusive lock. No method
// performs I/O while holding the lock.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*runRecord
}

var _ RunStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*runRecord),
	}
}

// Create publishes a run together with its empty signal map.
func (s *MemoryStore) Create(run *domain.Run) error {
	if run == nil || run.RunID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}

	rec := &runRecord{
		run:     run,
		signals: make(map[int]domain.BehaviorSignal),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.RunID]; exists {
		return fmt.Errorf("run %s already exists", run.RunID)
	}
	s.runs[run.RunID] = rec
	return nil
}

// Get returns the run. The returned value must be treated as read-only.
func (s *MemoryStore) Get(runID string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, notFound(runID)
	}
	return rec.run, nil
}

// Count returns the number of stored runs.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// CurrentStep returns the advisory cursor of a run.
func (s *MemoryStore) CurrentStep(runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return 0, notFound(runID)
	}
	return rec.currentStep, nil
}

// SetCurrentStep moves the advisory cursor.
func (s *MemoryStore) SetCurrentStep(runID string, step int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[runID]
	if !ok {
		return notFound(runID)
	}
	if step < 0 || step >= len(rec.run.Trace) {
		return fmt.Errorf("%w: step %d out of range [0,%d)", domain.ErrInvalidInput, step, len(rec.run.Trace))
	}
	rec.currentStep = step
	return nil
}

// RecordSignal upserts the signal of a step.
func (s *MemoryStore) RecordSignal(runID string, step int, signal domain.BehaviorSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[runID]
	if !ok {
		return notFound(runID)
	}
	rec.signals[step] = signal.Clone()
	return nil
}

// UpdateSignal applies fn to the step's signal, starting from the defaults
// when none is recorded yet.
func (s *MemoryStore) UpdateSignal(runID string, step int, fn func(*domain.BehaviorSignal)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[runID]
	if !ok {
		return notFound(runID)
	}
	signal, ok := rec.signals[step]
	if !ok {
		signal = domain.DefaultBehaviorSignal()
	}
	fn(&signal)
	rec.signals[step] = signal.Clone()
	return nil
}

// Signal returns the recorded signal of a step, or the defaults.
func (s *MemoryStore) Signal(runID string, step int) (domain.BehaviorSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return domain.BehaviorSignal{}, notFound(runID)
	}
	if signal, ok := rec.signals[step]; ok {
		return signal.Clone(), nil
	}
	return domain.DefaultBehaviorSignal(), nil
}

// Signals returns a copy of every recorded signal of a run.
func (s *MemoryStore) Signals(runID string) (map[int]domain.BehaviorSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, notFound(runID)
	}
	out := make(map[int]domain.BehaviorSignal, len(rec.signals))
	for step, signal := range rec.signals {
		out[step] = signal.Clone()
	}
	return out, nil
}

func notFound(runID string) error {
	return fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
}
