package explainer

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/xiaot623/algostream/internal/domain"
)

// Throttled caps the rate of explainer calls across every stream of the
// process. Waiting for capacity honours ctx cancellation.
type Throttled struct {
	next    Explainer
	limiter *rate.Limiter
}

// NewThrottled wraps next with a token bucket of perSec calls per second.
// A non-positive perSec returns next unchanged.
func NewThrottled(next Explainer, perSec float64, burst int) Explainer {
	if perSec <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

// Explain waits for a token, then delegates.
func (t *Throttled) Explain(ctx context.Context, frame domain.Frame, behavior domain.BehaviorSignal) (*domain.Explanation, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("explainer throttle: %w", err)
	}
	return t.next.Explain(ctx, frame, behavior)
}
