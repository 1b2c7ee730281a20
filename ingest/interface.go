package ingest

import (
	"context"

	"github.com/careertrack/metrics-engine/common"
)

// MetricWriter defines the persistence needed by the ingestor
type MetricWriter interface {
	// SaveMetricPoints inserts a batch of metric points, attempting the remaining entries when one
	// fails, and returns the number actually persisted
	SaveMetricPoints(ctx context.Context, points []common.MetricPoint) int

	// SaveErrorLog inserts an error log entry and returns its id
	SaveErrorLog(ctx context.Context, entry common.ErrorLogEntry) (int64, error)

	IsInterfaceNil() bool
}

// Evaluator defines the alert evaluation entry points invoked by the ingestor workers.
// Evaluate sees the instantaneous written value; the periodic sweep owned by the scheduler sees
// 5-minute averages instead. Both modes exist on purpose and are not interchangeable.
type Evaluator interface {
	// Evaluate checks a single written value against the enabled rules watching the metric
	Evaluate(ctx context.Context, metricName string, value float64)

	// CheckErrorRate recomputes the trailing error rate after an error capture
	CheckErrorRate(ctx context.Context)

	IsInterfaceNil() bool
}
