package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiaot623/algostream/internal/domain"
	"github.com/xiaot623/algostream/internal/protocol"
)

var errMalformedExplanation = errors.New("malformed explanation")

// Sender delivers one outbound message to a viewer connection.
type Sender interface {
	Send(ctx context.Context, msg protocol.Envelope) error
}

// StreamOptions parameterizes one stream attachment.
type StreamOptions struct {
	Speed        float64
	FromStep     int
	ConnectionID string
}

// StreamResult reports how an attachment ended.
type StreamResult struct {
	State      domain.StreamState
	FramesSent int
	Fallbacks  int
}

// NormalizeSpeed maps unusable speed multipliers to 1.0.
func NormalizeSpeed(speed float64) float64 {
	if !(speed > 0) || math.IsInf(speed, 0) {
		return 1.0
	}
	return speed
}

// MaxFrameDelay caps the pacing wait so tiny multipliers cannot overflow
// time.Duration.
const MaxFrameDelay = time.Hour

// FrameDelay returns base/speed, clamped to [0, MaxFrameDelay].
func FrameDelay(base time.Duration, speed float64) time.Duration {
	d := float64(base) / NormalizeSpeed(speed)
	if d >= float64(MaxFrameDelay) {
		return MaxFrameDelay
	}
	if d <= 0 {
		return 0
	}
	return time.Duration(d)
}

// StreamRun relays the run's trace from opts.FromStep to sender, one TRACE and
// one EXPLANATION per frame followed by END. It returns when the stream
// completes, a send fails, or ctx is cancelled.
func (s *Service) StreamRun(ctx context.Context, runID string, opts StreamOptions, sender Sender) (StreamResult, error) {
	result := StreamResult{State: domain.StreamStateIdle}

	run, err := s.store.Get(runID)
	if err != nil {
		return result, err
	}
	if opts.FromStep < 0 {
		opts.FromStep = 0
	}
	if opts.FromStep >= run.TotalSteps() {
		return result, fmt.Errorf("%w: fromStep %d out of range [0,%d)", domain.ErrInvalidInput, opts.FromStep, run.TotalSteps())
	}

	speed := NormalizeSpeed(opts.Speed)
	delay := FrameDelay(s.config.BaseFrameDelay, speed)

	result.State = domain.StreamStateStreaming
	s.journalEvent(ctx, runID, domain.EventTypeStreamStarted, domain.StreamStartedPayload{
		ConnectionID:    opts.ConnectionID,
		SpeedMultiplier: speed,
		FromStep:        opts.FromStep,
	})
	log.Printf("INFO: streaming run %s to %s from step %d at %.2fx", runID, opts.ConnectionID, opts.FromStep, speed)

	for i := opts.FromStep; i < run.TotalSteps(); i++ {
		if err := ctx.Err(); err != nil {
			return s.abort(ctx, runID, opts, result, err), err
		}

		frame := run.Trace[i]
		if err := sender.Send(ctx, protocol.NewTrace(frame)); err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrViewerSendFailed, err)
			return s.abort(ctx, runID, opts, result, err), err
		}
		result.FramesSent++
		s.metrics.FrameSent(ctx, runID)

		explanation, fellBack := s.explainStep(ctx, runID, i, frame, speed)
		if err := ctx.Err(); err != nil {
			return s.abort(ctx, runID, opts, result, err), err
		}
		if fellBack {
			result.Fallbacks++
		}

		if err := sender.Send(ctx, protocol.NewExplanation(explanation)); err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrViewerSendFailed, err)
			return s.abort(ctx, runID, opts, result, err), err
		}

		if err := pace(ctx, delay); err != nil {
			return s.abort(ctx, runID, opts, result, err), err
		}
	}

	if err := sender.Send(ctx, protocol.NewEnd()); err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrViewerSendFailed, err)
		return s.abort(ctx, runID, opts, result, err), err
	}

	result.State = domain.StreamStateCompleted
	s.metrics.StreamFinished(ctx, result.State)
	s.journalEvent(ctx, runID, domain.EventTypeStreamCompleted, domain.StreamFinishedPayload{
		ConnectionID: opts.ConnectionID,
		FramesSent:   result.FramesSent,
		Fallbacks:    result.Fallbacks,
	})
	log.Printf("INFO: run %s stream to %s completed (%d frames, %d fallbacks)", runID, opts.ConnectionID, result.FramesSent, result.Fallbacks)
	return result, nil
}

func (s *Service) abort(ctx context.Context, runID string, opts StreamOptions, result StreamResult, cause error) StreamResult {
	result.State = domain.StreamStateAborted
	s.metrics.StreamFinished(context.WithoutCancel(ctx), result.State)
	s.journalEvent(ctx, runID, domain.EventTypeStreamAborted, domain.StreamFinishedPayload{
		ConnectionID: opts.ConnectionID,
		FramesSent:   result.FramesSent,
		Fallbacks:    result.Fallbacks,
		Error:        cause.Error(),
	})
	log.Printf("WARN: run %s stream to %s aborted after %d frames: %v", runID, opts.ConnectionID, result.FramesSent, cause)
	return result
}

// explainStep asks the explainer about one frame. Any failure yields the
// fallback explanation and reports fellBack.
func (s *Service) explainStep(ctx context.Context, runID string, step int, frame domain.Frame, speed float64) (domain.Explanation, bool) {
	behavior, err := s.store.Signal(runID, step)
	if err != nil {
		behavior = domain.DefaultBehaviorSignal()
	}
	behavior.SpeedMultiplier = speed

	callCtx := ctx
	if s.config.ExplainTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.config.ExplainTimeout)
		defer cancel()
	}
	callCtx, span := s.metrics.StartSpan(callCtx, "algostream.explain_step",
		attribute.String("run_id", runID),
		attribute.Int("step_index", step),
	)
	defer span.End()

	explanation, err := s.explainer.Explain(callCtx, frame, behavior)
	switch {
	case err != nil:
	case explanation == nil || !explanation.Valid():
		err = errMalformedExplanation
	default:
		return *explanation, false
	}
	err = fmt.Errorf("%w: %w", domain.ErrExplanationUnavailable, err)

	fallback := domain.FallbackExplanation()
	if ctx.Err() != nil {
		return fallback, false
	}

	span.RecordError(err)
	reason := fallbackReason(err)
	log.Printf("WARN: run %s step %d: using fallback explanation: %v", runID, step, err)
	s.metrics.ExplanationFallback(ctx, runID, reason)
	s.journalEvent(ctx, runID, domain.EventTypeExplanationFallback, domain.ExplanationFallbackPayload{
		StepIndex: step,
		Reason:    err.Error(),
	})
	return fallback, true
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, errMalformedExplanation):
		return "malformed"
	default:
		return "error"
	}
}

// pace waits d or until ctx is done.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return nil
}
