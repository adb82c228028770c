package collector

import (
	"context"

	"PatternScreener/internal/model"
)

// Fetcher retrieves raw bar frames from a market-data provider.
type Fetcher interface {
	FetchFrame(ctx context.Context, symbol string, days int) (model.Frame, error)
	Name() string
}
