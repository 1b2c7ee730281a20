package api

import (
	"context"

	"github.com/careertrack/metrics-engine/common"
)

// Storage defines the query and alert administration persistence consumed by the web server
type Storage interface {
	// GetMetrics returns metric points matching the optional name, tag and time filters, newest first
	GetMetrics(ctx context.Context, name string, tagKey string, tagValue string, start int64, end int64, limit int) ([]common.MetricPoint, error)

	// GetStatistics computes avg/min/max/count for a metric over the optional time window
	GetStatistics(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error)

	// GetErrorLogs returns error log entries matching the optional filters, newest first
	GetErrorLogs(ctx context.Context, errorType string, severity common.Severity, start int64, end int64, limit int) ([]common.ErrorLogEntry, error)

	// CountErrorsSince returns the number of error log entries created at or after the provided timestamp
	CountErrorsSince(ctx context.Context, since int64) (int64, error)

	// CreateAlertRule inserts a new alert rule and returns its id
	CreateAlertRule(ctx context.Context, rule common.AlertRule) (int64, error)

	// UpdateAlertRule updates the mutable fields of an alert rule, returning false for an unknown id
	UpdateAlertRule(ctx context.Context, rule common.AlertRule) (bool, error)

	// GetAlertRules returns all alert rules
	GetAlertRules(ctx context.Context) ([]common.AlertRule, error)

	// GetActiveAlerts returns all unresolved alert events
	GetActiveAlerts(ctx context.Context) ([]common.AlertEvent, error)

	// Ping executes a trivial read to verify the store is reachable
	Ping(ctx context.Context) error

	// Close shuts down the database connection
	Close() error

	IsInterfaceNil() bool
}

// Ingestor defines the non-blocking record entry points exposed over HTTP
type Ingestor interface {
	// Record buffers a metric point, a zero recordedAt defaults to the current time
	Record(name string, value float64, tags map[string]string, recordedAt int64)

	// RecordError persists an error log entry and schedules an error-rate evaluation
	RecordError(entry common.ErrorLogEntry)

	IsInterfaceNil() bool
}

// Evaluator defines the alert operations exposed over HTTP
type Evaluator interface {
	// ResolveAlert marks the event as resolved, false when unknown or already resolved
	ResolveAlert(ctx context.Context, eventID int64) bool

	IsInterfaceNil() bool
}

// Aggregator defines the rollup operation exposed through the maintenance surface
type Aggregator interface {
	// Aggregate rolls up metric points into the requested bucket size
	Aggregate(ctx context.Context, period common.AggregationPeriod) error

	IsInterfaceNil() bool
}

// Sweeper defines the retention operation exposed through the maintenance surface
type Sweeper interface {
	// Cleanup deletes all metric points older than the retention horizon and returns the deleted count
	Cleanup(ctx context.Context, retentionDays int) (int64, error)

	IsInterfaceNil() bool
}
