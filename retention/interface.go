package retention

import "context"

// MetricPruner defines the delete operation needed by the retention sweeper
type MetricPruner interface {
	// DeleteMetricsBefore removes all metric points older than the cutoff and returns the deleted count
	DeleteMetricsBefore(ctx context.Context, cutoff int64) (int64, error)

	IsInterfaceNil() bool
}
