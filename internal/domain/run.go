package domain

import (
	"encoding/json"
	"time"
)

// Run is a created execution trace. The trace is never mutated after the run
// is published to a store, so a *Run may be shared between readers.
type Run struct {
	RunID       string    `json:"runId"`
	AlgorithmID string    `json:"algorithmId"`
	Trace       []Frame   `json:"trace"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TotalSteps returns the number of frames in the trace.
func (r *Run) TotalSteps() int {
	return len(r.Trace)
}

// RunSummary is the externally visible state of a run.
type RunSummary struct {
	RunID           string                 `json:"runId"`
	AlgorithmID     string                 `json:"algorithmId"`
	TotalSteps      int                    `json:"totalSteps"`
	CurrentStep     int                    `json:"currentStep"`
	BehaviorSignals map[int]BehaviorSignal `json:"behaviorSignals"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// BehaviorSignal holds recorded viewer interaction for one step of one run.
type BehaviorSignal struct {
	PauseDuration   float64 `json:"pauseDuration"`
	ReplayCount     int     `json:"replayCount"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
	HoverIndex      *int    `json:"hoverIndex,omitempty"`
	ScrollDepth     *int    `json:"scrollDepth,omitempty"`
}

// DefaultBehaviorSignal is the signal of a step nobody has interacted with.
func DefaultBehaviorSignal() BehaviorSignal {
	return BehaviorSignal{SpeedMultiplier: 1.0}
}

// Clone returns a deep copy so callers never share the optional pointers.
func (b BehaviorSignal) Clone() BehaviorSignal {
	out := b
	if b.HoverIndex != nil {
		v := *b.HoverIndex
		out.HoverIndex = &v
	}
	if b.ScrollDepth != nil {
		v := *b.ScrollDepth
		out.ScrollDepth = &v
	}
	return out
}

// SignalEvent is an incremental viewer interaction for one step.
type SignalEvent struct {
	StepIndex     int        `json:"stepIndex"`
	Kind          SignalKind `json:"kind"`
	PauseDuration float64    `json:"pauseDuration,omitempty"`
	HoverIndex    *int       `json:"hoverIndex,omitempty"`
	ScrollDepth   *int       `json:"scrollDepth,omitempty"`
}

// Explanation is the tutoring text for one frame.
type Explanation struct {
	Mode               ExplanationMode `json:"mode"`
	Explanation        string          `json:"explanation"`
	ShortHint          string          `json:"short_hint"`
	ConfidenceEstimate Confidence      `json:"confidence_estimate"`
	FollowupQuestion   string          `json:"followup_question"`
}

// Valid reports whether the explanation is well formed.
func (e Explanation) Valid() bool {
	return e.Mode.Valid() && e.ConfidenceEstimate.Valid() && e.Explanation != ""
}

// FallbackExplanation is sent when the explanation collaborator fails.
func FallbackExplanation() Explanation {
	return Explanation{
		Mode:               ModeConceptual,
		Explanation:        "Processing this step...",
		ShortHint:          "Watch the visualization",
		ConfidenceEstimate: ConfidenceMedium,
		FollowupQuestion:   "",
	}
}

// Event represents a journaled run lifecycle event.
type Event struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StreamStartedPayload is the payload of stream_started.
type StreamStartedPayload struct {
	ConnectionID    string  `json:"connection_id,omitempty"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
	FromStep        int     `json:"from_step"`
}

// StreamFinishedPayload is the payload of stream_completed and stream_aborted.
type StreamFinishedPayload struct {
	ConnectionID string `json:"connection_id,omitempty"`
	FramesSent   int    `json:"frames_sent"`
	Fallbacks    int    `json:"fallbacks"`
	Error        string `json:"error,omitempty"`
}

// ExplanationFallbackPayload is the payload of explanation_fallback.
type ExplanationFallbackPayload struct {
	StepIndex int    `json:"step_index"`
	Reason    string `json:"reason"`
}
