package testsCommon

import (
	"context"

	"github.com/careertrack/metrics-engine/common"
)

// AggregatorStub -
type AggregatorStub struct {
	AggregateHandler func(ctx context.Context, period common.AggregationPeriod) error
}

// Aggregate -
func (stub *AggregatorStub) Aggregate(ctx context.Context, period common.AggregationPeriod) error {
	if stub.AggregateHandler != nil {
		return stub.AggregateHandler(ctx, period)
	}

	return nil
}

// IsInterfaceNil -
func (stub *AggregatorStub) IsInterfaceNil() bool {
	return stub == nil
}

// SweeperStub -
type SweeperStub struct {
	CleanupHandler func(ctx context.Context, retentionDays int) (int64, error)
}

// Cleanup -
func (stub *SweeperStub) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if stub.CleanupHandler != nil {
		return stub.CleanupHandler(ctx, retentionDays)
	}

	return 0, nil
}

// IsInterfaceNil -
func (stub *SweeperStub) IsInterfaceNil() bool {
	return stub == nil
}
