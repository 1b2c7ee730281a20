package aggregation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/careertrack/metrics-engine/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("aggregation")

const (
	// HourlySuffix marks metric points produced by the hourly rollup
	HourlySuffix = ".hourly"

	// DailySuffix marks metric points produced by the daily rollup
	DailySuffix = ".daily"

	bucketTagKey = "bucket"
)

// ArgsAggregator holds the dependencies of the aggregator
type ArgsAggregator struct {
	Store MetricStore
}

type aggregator struct {
	store MetricStore
}

// NewAggregator creates a new aggregator instance
func NewAggregator(args ArgsAggregator) (*aggregator, error) {
	if check.IfNil(args.Store) {
		return nil, errors.New("nil metric store")
	}

	return &aggregator{
		store: args.Store,
	}, nil
}

// Aggregate rolls up metric points into the requested bucket size. The rollup is two-staged:
// hourly reads raw points, daily reads only hourly summary points, never raw ones. Buckets are
// read relative to the last fully elapsed boundary, so a partial hour or day is never summarized.
// Re-running an already aggregated bucket produces a duplicate summary point: callers must invoke
// at most once per bucket.
func (a *aggregator) Aggregate(ctx context.Context, period common.AggregationPeriod) error {
	asOf := time.Now().UTC()

	switch period {
	case common.PeriodHourly:
		return a.aggregateHourly(ctx, asOf)
	case common.PeriodDaily:
		return a.aggregateDaily(ctx, asOf)
	default:
		return fmt.Errorf("unknown aggregation period '%s'", period)
	}
}

// aggregateHourly summarizes raw points from the last fully elapsed hour into <name>.hourly points
func (a *aggregator) aggregateHourly(ctx context.Context, asOf time.Time) error {
	windowEnd := asOf.Truncate(time.Hour)
	windowStart := windowEnd.Add(-time.Hour)

	points, err := a.store.GetMetricsInRange(ctx, windowStart.Unix(), windowEnd.Unix())
	if err != nil {
		return fmt.Errorf("failed to fetch raw points for hourly aggregation: %w", err)
	}

	groups := groupPoints(points, time.Hour, func(name string) (string, bool) {
		if strings.HasSuffix(name, HourlySuffix) || strings.HasSuffix(name, DailySuffix) {
			return "", false
		}
		return name, true
	})

	return a.writeSummaries(ctx, groups, HourlySuffix)
}

// aggregateDaily summarizes hourly points from the last fully elapsed day into <name>.daily points
func (a *aggregator) aggregateDaily(ctx context.Context, asOf time.Time) error {
	windowEnd := asOf.Truncate(24 * time.Hour)
	windowStart := windowEnd.Add(-24 * time.Hour)

	points, err := a.store.GetMetricsInRange(ctx, windowStart.Unix(), windowEnd.Unix())
	if err != nil {
		return fmt.Errorf("failed to fetch hourly points for daily aggregation: %w", err)
	}

	groups := groupPoints(points, 24*time.Hour, func(name string) (string, bool) {
		if !strings.HasSuffix(name, HourlySuffix) {
			return "", false
		}
		return strings.TrimSuffix(name, HourlySuffix), true
	})

	return a.writeSummaries(ctx, groups, DailySuffix)
}

type groupKey struct {
	name   string
	bucket int64
}

type accumulator struct {
	sum   float64
	count int
}

func groupPoints(
	points []common.MetricPoint,
	bucketSize time.Duration,
	nameMapper func(name string) (string, bool),
) map[groupKey]*accumulator {
	groups := make(map[groupKey]*accumulator)

	for _, point := range points {
		name, ok := nameMapper(point.Name)
		if !ok {
			continue
		}

		bucket := time.Unix(point.RecordedAt, 0).UTC().Truncate(bucketSize)
		key := groupKey{name: name, bucket: bucket.Unix()}

		acc := groups[key]
		if acc == nil {
			acc = &accumulator{}
			groups[key] = acc
		}
		acc.sum += point.Value
		acc.count++
	}

	return groups
}

func (a *aggregator) writeSummaries(ctx context.Context, groups map[groupKey]*accumulator, suffix string) error {
	written := 0
	for key, acc := range groups {
		bucketTime := time.Unix(key.bucket, 0).UTC()
		point := common.MetricPoint{
			Name:       key.name + suffix,
			Value:      acc.sum / float64(acc.count),
			Tags:       map[string]string{bucketTagKey: bucketTime.Format(time.RFC3339)},
			RecordedAt: key.bucket,
		}

		err := a.store.SaveMetricPoint(ctx, point)
		if err != nil {
			// one failed summary must not stop the rest of the pass
			log.Warn("failed to save summary point", "name", point.Name, "error", err)
			continue
		}
		written++
	}

	log.Debug("aggregation pass finished", "suffix", suffix, "groups", len(groups), "written", written)

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (a *aggregator) IsInterfaceNil() bool {
	return a == nil
}
