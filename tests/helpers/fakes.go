package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xiaot623/algostream/internal/domain"
	"github.com/xiaot623/algostream/internal/protocol"
)

// Frames builds n array frames carrying their stepIndex.
func Frames(n int) []domain.Frame {
	frames := make([]domain.Frame, n)
	for i := range frames {
		frames[i] = domain.MustFrame(fmt.Sprintf(`{"stepIndex":%d,"array":[%d,%d],"action":"compare"}`, i, i, i+1))
	}
	return frames
}

// StepIndex reads the stepIndex field of a frame, or -1.
func StepIndex(frame domain.Frame) int {
	var v struct {
		StepIndex *int `json:"stepIndex"`
	}
	if err := json.Unmarshal(frame.Bytes(), &v); err != nil || v.StepIndex == nil {
		return -1
	}
	return *v.StepIndex
}

// FakeGenerator returns a fixed trace or error.
type FakeGenerator struct {
	Frames []domain.Frame
	Err    error

	mu    sync.Mutex
	calls int
}

func (g *FakeGenerator) Generate(ctx context.Context, algorithmID string, array []int) ([]domain.Frame, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Frames, nil
}

func (g *FakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// ScriptedExplainer answers with a valid explanation naming the step, fails
// for the steps in Fail and returns a malformed reply for the steps in
// Malformed. It records every behavior summary it receives.
type ScriptedExplainer struct {
	Fail      map[int]bool
	Malformed map[int]bool
	Delay     time.Duration

	mu        sync.Mutex
	behaviors map[int][]domain.BehaviorSignal
	calls     int
}

func (e *ScriptedExplainer) Explain(ctx context.Context, frame domain.Frame, behavior domain.BehaviorSignal) (*domain.Explanation, error) {
	step := StepIndex(frame)

	e.mu.Lock()
	e.calls++
	if e.behaviors == nil {
		e.behaviors = make(map[int][]domain.BehaviorSignal)
	}
	e.behaviors[step] = append(e.behaviors[step], behavior.Clone())
	e.mu.Unlock()

	if e.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.Delay):
		}
	}

	if e.Fail[step] {
		return nil, errors.New("explainer unavailable")
	}
	if e.Malformed[step] {
		return &domain.Explanation{Mode: "poetic", Explanation: "?"}, nil
	}
	return &domain.Explanation{
		Mode:               domain.ModeOperational,
		Explanation:        fmt.Sprintf("step %d", step),
		ConfidenceEstimate: domain.ConfidenceHigh,
	}, nil
}

func (e *ScriptedExplainer) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Behaviors returns the summaries passed for a step, in call order.
func (e *ScriptedExplainer) Behaviors(step int) []domain.BehaviorSignal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.BehaviorSignal(nil), e.behaviors[step]...)
}

// RecordingSender collects outbound messages. When FailAt is positive, the
// FailAt-th send and every later one fail.
type RecordingSender struct {
	FailAt int
	OnSend func(n int, msg protocol.Envelope)

	mu       sync.Mutex
	attempts int
	messages []protocol.Envelope
}

var ErrSendFailed = errors.New("connection reset")

func (s *RecordingSender) Send(ctx context.Context, msg protocol.Envelope) error {
	s.mu.Lock()
	s.attempts++
	n := s.attempts
	if s.FailAt > 0 && n >= s.FailAt {
		s.mu.Unlock()
		return ErrSendFailed
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if s.OnSend != nil {
		s.OnSend(n, msg)
	}
	return nil
}

func (s *RecordingSender) Messages() []protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Envelope(nil), s.messages...)
}

// Types returns the type of every recorded message.
func (s *RecordingSender) Types() []string {
	msgs := s.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}
