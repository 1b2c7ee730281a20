package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("retention")

const secondsPerDay = 86400

// ArgsRetentionSweeper holds the dependencies of the retention sweeper
type ArgsRetentionSweeper struct {
	Store MetricPruner
}

type retentionSweeper struct {
	store MetricPruner
}

// NewRetentionSweeper creates a new retention sweeper instance
func NewRetentionSweeper(args ArgsRetentionSweeper) (*retentionSweeper, error) {
	if check.IfNil(args.Store) {
		return nil, errors.New("nil metric pruner")
	}

	return &retentionSweeper{
		store: args.Store,
	}, nil
}

// Cleanup deletes all metric points older than the retention horizon and returns the deleted count.
// It is idempotent: a second call right after deletes zero additional rows.
func (r *retentionSweeper) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("invalid retention days value: %d", retentionDays)
	}

	cutoff := time.Now().Unix() - int64(retentionDays)*secondsPerDay

	deleted, err := r.store.DeleteMetricsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention cleanup failed: %w", err)
	}

	log.Debug("retention cleanup finished", "retention days", retentionDays, "deleted", deleted)

	return deleted, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *retentionSweeper) IsInterfaceNil() bool {
	return r == nil
}
