package explainer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiaot623/algostream/internal/domain"
)

// MockClient is a canned Explainer for running without the explanation service.
type MockClient struct{}

// NewMockClient creates a new mock explainer.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements Explainer interface.
var _ Explainer = (*MockClient)(nil)

type mockFrameView struct {
	StepIndex int    `json:"stepIndex"`
	Action    string `json:"action"`
	Array     []int  `json:"array"`
}

// Explain describes the frame's action and adapts its mode to the behavior.
func (m *MockClient) Explain(ctx context.Context, frame domain.Frame, behavior domain.BehaviorSignal) (*domain.Explanation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := domain.ModeOperational
	switch {
	case behavior.ReplayCount >= 2 || behavior.PauseDuration >= 5:
		mode = domain.ModeConceptual
	case behavior.SpeedMultiplier >= 2:
		mode = domain.ModeTechnical
	}

	return &domain.Explanation{
		Mode:               mode,
		Explanation:        describeFrame(frame),
		ShortHint:          "Follow the highlighted positions.",
		ConfidenceEstimate: domain.ConfidenceHigh,
		FollowupQuestion:   "What do you expect the next step to change?",
	}, nil
}

// describeFrame summarizes array frames. Frames of any other shape get a
// generic description.
func describeFrame(frame domain.Frame) string {
	var view mockFrameView
	if err := json.Unmarshal(frame.Bytes(), &view); err != nil {
		return "[MOCK] This step updates the visualization."
	}

	action := view.Action
	if action == "" {
		action = "update"
	}
	return fmt.Sprintf("[MOCK] Step %d performs a %s on %v.", view.StepIndex, action, view.Array)
}
