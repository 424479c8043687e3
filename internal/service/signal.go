package service

import (
	"context"
	"fmt"
	"math"

	"github.com/xiaot623/algostream/internal/domain"
)

// ApplySignal folds one viewer interaction event into the step's recorded signal.
func (s *Service) ApplySignal(ctx context.Context, runID string, ev domain.SignalEvent) error {
	if ev.StepIndex < 0 {
		return fmt.Errorf("%w: negative step index %d", domain.ErrInvalidInput, ev.StepIndex)
	}

	var apply func(*domain.BehaviorSignal)
	switch ev.Kind {
	case domain.SignalKindPause:
		if ev.PauseDuration < 0 || math.IsNaN(ev.PauseDuration) || math.IsInf(ev.PauseDuration, 0) {
			return fmt.Errorf("%w: invalid pause duration", domain.ErrInvalidInput)
		}
		d := ev.PauseDuration
		apply = func(b *domain.BehaviorSignal) { b.PauseDuration += d }
	case domain.SignalKindReplay:
		apply = func(b *domain.BehaviorSignal) { b.ReplayCount++ }
	case domain.SignalKindHover:
		if ev.HoverIndex == nil {
			return fmt.Errorf("%w: hover event without hoverIndex", domain.ErrInvalidInput)
		}
		v := *ev.HoverIndex
		apply = func(b *domain.BehaviorSignal) { b.HoverIndex = &v }
	case domain.SignalKindScroll:
		if ev.ScrollDepth == nil {
			return fmt.Errorf("%w: scroll event without scrollDepth", domain.ErrInvalidInput)
		}
		v := *ev.ScrollDepth
		apply = func(b *domain.BehaviorSignal) { b.ScrollDepth = &v }
	default:
		return fmt.Errorf("%w: unknown signal kind %q", domain.ErrInvalidInput, ev.Kind)
	}

	return s.store.UpdateSignal(runID, ev.StepIndex, apply)
}

// RecordSignal replaces the recorded signal of a step.
func (s *Service) RecordSignal(runID string, step int, signal domain.BehaviorSignal) error {
	if step < 0 {
		return fmt.Errorf("%w: negative step index %d", domain.ErrInvalidInput, step)
	}
	if !(signal.SpeedMultiplier > 0) {
		signal.SpeedMultiplier = 1.0
	}
	return s.store.RecordSignal(runID, step, signal)
}
