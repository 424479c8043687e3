// Package tracegen provides clients for the external trace generator.
package tracegen

import (
	"context"

	"github.com/xiaot623/algostream/internal/domain"
)

// Generator produces the ordered frames of one algorithm execution.
type Generator interface {
	Generate(ctx context.Context, algorithmID string, array []int) ([]domain.Frame, error)
}

// Ensure Client implements Generator interface.
var _ Generator = (*Client)(nil)
