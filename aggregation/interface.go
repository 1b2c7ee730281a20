package aggregation

import (
	"context"

	"github.com/careertrack/metrics-engine/common"
)

// MetricStore defines the persistence needed by the aggregator
type MetricStore interface {
	// GetMetricsInRange returns all metric points with start <= recorded_at < end, in timestamp order
	GetMetricsInRange(ctx context.Context, start int64, end int64) ([]common.MetricPoint, error)

	// SaveMetricPoint inserts a single metric point
	SaveMetricPoint(ctx context.Context, point common.MetricPoint) error

	IsInterfaceNil() bool
}
