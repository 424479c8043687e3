package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/algostream/internal/domain"
	"github.com/xiaot623/algostream/internal/policy"
)

type runCreatedPayload struct {
	AlgorithmID string `json:"algorithm_id"`
	ArrayLength int    `json:"array_length"`
	TotalSteps  int    `json:"total_steps"`
}

type runSeekedPayload struct {
	StepIndex int `json:"step_index"`
}

// CreateRun acquires a trace and stores it as a new run.
func (s *Service) CreateRun(ctx context.Context, algorithmID string, array []int) (*domain.Run, error) {
	if len(array) == 0 {
		return nil, fmt.Errorf("%w: array must not be empty", domain.ErrInvalidInput)
	}

	if s.policyEngine != nil {
		reasons, err := s.policyEngine.Evaluate(ctx, policy.AdmissionInput{
			AlgorithmID:    algorithmID,
			Array:          array,
			MaxArrayLength: s.config.MaxArrayLength,
		})
		if err != nil {
			return nil, fmt.Errorf("admission policy: %w", err)
		}
		if len(reasons) > 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(reasons, "; "))
		}
	}

	trace, err := s.acquire(ctx, algorithmID, array)
	if err != nil {
		log.Printf("ERROR: trace generation for %s failed: %v", algorithmID, err)
		return nil, err
	}

	run := &domain.Run{
		RunID:       uuid.New().String(),
		AlgorithmID: algorithmID,
		Trace:       trace,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Create(run); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	s.metrics.RunCreated(ctx, algorithmID)
	s.journalEvent(ctx, run.RunID, domain.EventTypeRunCreated, runCreatedPayload{
		AlgorithmID: algorithmID,
		ArrayLength: len(array),
		TotalSteps:  len(trace),
	})
	log.Printf("INFO: created run %s (%s, %d steps)", run.RunID, algorithmID, len(trace))
	return run, nil
}

// acquire makes one call to the trace generator.
func (s *Service) acquire(ctx context.Context, algorithmID string, array []int) ([]domain.Frame, error) {
	trace, err := s.tracegen.Generate(ctx, algorithmID, array)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTraceGenerationFailed, err)
	}
	if len(trace) == 0 {
		return nil, fmt.Errorf("%w: generator returned no frames", domain.ErrTraceGenerationFailed)
	}
	return trace, nil
}

// GetRun returns the stored run.
func (s *Service) GetRun(runID string) (*domain.Run, error) {
	return s.store.Get(runID)
}

// GetRunSummary returns the externally visible state of a run.
func (s *Service) GetRunSummary(runID string) (*domain.RunSummary, error) {
	run, err := s.store.Get(runID)
	if err != nil {
		return nil, err
	}
	step, err := s.store.CurrentStep(runID)
	if err != nil {
		return nil, err
	}
	signals, err := s.store.Signals(runID)
	if err != nil {
		return nil, err
	}
	return &domain.RunSummary{
		RunID:           run.RunID,
		AlgorithmID:     run.AlgorithmID,
		TotalSteps:      run.TotalSteps(),
		CurrentStep:     step,
		BehaviorSignals: signals,
		CreatedAt:       run.CreatedAt,
	}, nil
}

// SeekRun moves the advisory cursor of a run.
func (s *Service) SeekRun(ctx context.Context, runID string, step int) error {
	if err := s.store.SetCurrentStep(runID, step); err != nil {
		return err
	}
	s.journalEvent(ctx, runID, domain.EventTypeRunSeeked, runSeekedPayload{StepIndex: step})
	return nil
}
