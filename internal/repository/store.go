// Package repository holds the run store and the run event journal.
package repository

import (
	"context"

	"github.com/xiaot623/algostream/internal/domain"
)

// RunStore is the concurrency-safe mapping from run id to run state.
// Every method returns domain.ErrRunNotFound for an unknown run id.
type RunStore interface {
	Create(run *domain.Run) error
	Get(runID string) (*domain.Run, error)
	Count() int

	CurrentStep(runID string) (int, error)
	SetCurrentStep(runID string, step int) error

	RecordSignal(runID string, step int, signal domain.BehaviorSignal) error
	UpdateSignal(runID string, step int, fn func(*domain.BehaviorSignal)) error
	Signal(runID string, step int) (domain.BehaviorSignal, error)
	Signals(runID string) (map[int]domain.BehaviorSignal, error)
}

// Journal records run lifecycle events for replay and operational visibility.
type Journal interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, runID string, afterTs int64, limit int) ([]domain.Event, error)
	Close() error
}
