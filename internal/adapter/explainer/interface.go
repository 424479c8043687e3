// Package explainer provides clients for the explanation collaborator.
package explainer

import (
	"context"

	"github.com/xiaot623/algostream/internal/domain"
)

// Explainer turns one frame and a behavior summary into tutoring text.
type Explainer interface {
	Explain(ctx context.Context, frame domain.Frame, behavior domain.BehaviorSignal) (*domain.Explanation, error)
}

// Ensure Client implements Explainer interface.
var _ Explainer = (*Client)(nil)
