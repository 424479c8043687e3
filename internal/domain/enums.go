// Package domain defines the core domain models for the trace relay.
package domain

// StreamState represents the state of a single stream attachment.
type StreamState string

const (
	StreamStateIdle      StreamState = "IDLE"
	StreamStateStreaming StreamState = "STREAMING"
	StreamStateCompleted StreamState = "COMPLETED"
	StreamStateAborted   StreamState = "ABORTED"
)

// IsTerminal reports whether no further transition can happen.
func (s StreamState) IsTerminal() bool {
	return s == StreamStateCompleted || s == StreamStateAborted
}

// ExplanationMode is the register an explanation is written in.
type ExplanationMode string

const (
	ModeConceptual  ExplanationMode = "conceptual"
	ModeOperational ExplanationMode = "operational"
	ModeTechnical   ExplanationMode = "technical"
)

// Valid reports whether m is a known mode.
func (m ExplanationMode) Valid() bool {
	switch m {
	case ModeConceptual, ModeOperational, ModeTechnical:
		return true
	}
	return false
}

// Confidence is the explainer's own estimate of its answer quality.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// SignalKind identifies a viewer interaction event.
type SignalKind string

const (
	SignalKindPause  SignalKind = "pause"
	SignalKindReplay SignalKind = "replay"
	SignalKindHover  SignalKind = "hover"
	SignalKindScroll SignalKind = "scroll"
)

// EventType represents the type of a journaled run event.
type EventType string

const (
	EventTypeRunCreated          EventType = "run_created"
	EventTypeRunSeeked           EventType = "run_seeked"
	EventTypeStreamStarted       EventType = "stream_started"
	EventTypeExplanationFallback EventType = "explanation_fallback"
	EventTypeStreamCompleted     EventType = "stream_completed"
	EventTypeStreamAborted       EventType = "stream_aborted"
)

// FrameKind tags the visualization shape of a frame.
type FrameKind string

const (
	FrameKindArray   FrameKind = "array"
	FrameKindGeneric FrameKind = "generic"
)
