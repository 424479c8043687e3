package tracegen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiaot623/algostream/internal/domain"
)

// MockClient generates traces locally for development without the
// trace generator service. Only bubble sort is supported.
type MockClient struct{}

// NewMockClient creates a new mock trace generator.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements Generator interface.
var _ Generator = (*MockClient)(nil)

type bubbleFrame struct {
	StepIndex    int            `json:"stepIndex"`
	Algorithm    string         `json:"algorithm"`
	Array        []int          `json:"array"`
	Pointers     map[string]int `json:"pointers"`
	Highlights   []int          `json:"highlights"`
	SwapOccurred bool           `json:"swapOccurred"`
	Action       string         `json:"action"`
	Metrics      bubbleMetrics  `json:"metrics"`
}

type bubbleMetrics struct {
	Comparisons int `json:"comparisons"`
	Swaps       int `json:"swaps"`
}

// Generate returns a bubble sort trace: an initial frame, one frame per
// comparison and per swap, and a final done frame.
func (m *MockClient) Generate(ctx context.Context, algorithmID string, array []int) ([]domain.Frame, error) {
	if algorithmID != "bubble_sort" {
		return nil, fmt.Errorf("mock trace generator: unsupported algorithm %q", algorithmID)
	}

	arr := append([]int(nil), array...)
	var frames []bubbleFrame
	var metrics bubbleMetrics
	emit := func(i, j int, action string, swapped bool, highlights []int) {
		pointers := map[string]int{}
		if action != "done" {
			pointers = map[string]int{"i": i, "j": j}
		}
		frames = append(frames, bubbleFrame{
			StepIndex:    len(frames),
			Algorithm:    algorithmID,
			Array:        append([]int(nil), arr...),
			Pointers:     pointers,
			Highlights:   highlights,
			SwapOccurred: swapped,
			Action:       action,
			Metrics:      metrics,
		})
	}

	emit(0, 0, "compare", false, []int{})
	n := len(arr)
	for i := 0; i < n; i++ {
		for j := 0; j < n-i-1; j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			metrics.Comparisons++
			emit(i, j, "compare", false, []int{j, j + 1})
			if arr[j] > arr[j+1] {
				arr[j], arr[j+1] = arr[j+1], arr[j]
				metrics.Swaps++
				emit(i, j, "swap", true, []int{j, j + 1})
			}
		}
	}
	emit(0, 0, "done", false, []int{})

	out := make([]domain.Frame, 0, len(frames))
	for _, f := range frames {
		frame, err := marshalFrame(f)
		if err != nil {
			return nil, err
		}
		out = append(out, frame)
	}
	return out, nil
}

func marshalFrame(v interface{}) (domain.Frame, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return domain.Frame{}, err
	}
	return domain.NewFrame(raw)
}
