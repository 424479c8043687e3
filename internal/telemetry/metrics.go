// Package telemetry records relay metrics and spans through OpenTelemetry.
package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiaot623/algostream/internal/domain"
)

const instrumentationName = "github.com/xiaot623/algostream"

// Recorder is the instrumentation surface used by the relay.
type Recorder interface {
	RunCreated(ctx context.Context, algorithmID string)
	FrameSent(ctx context.Context, runID string)
	ExplanationFallback(ctx context.Context, runID, reason string)
	StreamFinished(ctx context.Context, state domain.StreamState)
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	FallbackTotal() int64
}

// Metrics delegates to the global OTEL MeterProvider and TracerProvider and
// keeps process totals for the health endpoint.
type Metrics struct {
	tracer    trace.Tracer
	runs      metric.Int64Counter
	frames    metric.Int64Counter
	fallbacks metric.Int64Counter
	streams   metric.Int64Counter

	fallbackTotal atomic.Int64
}

// Ensure Metrics implements Recorder interface.
var _ Recorder = (*Metrics)(nil)

// NewMetrics creates the relay instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{tracer: otel.Tracer(instrumentationName)}

	var err error
	if m.runs, err = meter.Int64Counter("algostream.runs.created", metric.WithDescription("Runs created")); err != nil {
		return nil, err
	}
	if m.frames, err = meter.Int64Counter("algostream.frames.sent", metric.WithDescription("TRACE messages delivered")); err != nil {
		return nil, err
	}
	if m.fallbacks, err = meter.Int64Counter("algostream.explanations.fallback", metric.WithDescription("Fallback explanations substituted")); err != nil {
		return nil, err
	}
	if m.streams, err = meter.Int64Counter("algostream.streams.finished", metric.WithDescription("Streams finished by terminal state")); err != nil {
		return nil, err
	}
	return m, nil
}

// RunCreated counts a created run.
func (m *Metrics) RunCreated(ctx context.Context, algorithmID string) {
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("algorithm_id", algorithmID)))
}

// FrameSent counts a delivered TRACE message.
func (m *Metrics) FrameSent(ctx context.Context, runID string) {
	m.frames.Add(ctx, 1)
}

// ExplanationFallback counts a substituted explanation.
func (m *Metrics) ExplanationFallback(ctx context.Context, runID, reason string) {
	m.fallbackTotal.Add(1)
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// StreamFinished counts a stream reaching a terminal state.
func (m *Metrics) StreamFinished(ctx context.Context, state domain.StreamState) {
	if !state.IsTerminal() {
		return
	}
	m.streams.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(state))))
}

// StartSpan starts a span on the relay tracer.
func (m *Metrics) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// FallbackTotal returns the number of fallbacks since start.
func (m *Metrics) FallbackTotal() int64 {
	return m.fallbackTotal.Load()
}
