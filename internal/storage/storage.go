package storage

import (
	"context"

	"volScope/internal/model"
)

// Sink receives finished volatility estimates.
type Sink interface {
	PutEstimates(ctx context.Context, estimates []model.Estimate) error
}
