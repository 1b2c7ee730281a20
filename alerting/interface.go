package alerting

import (
	"context"

	"github.com/careertrack/metrics-engine/common"
)

// AlertStore defines the alert rule and event persistence needed by the evaluator
type AlertStore interface {
	// GetEnabledRulesForMetric returns the enabled rules watching the provided metric name
	GetEnabledRulesForMetric(ctx context.Context, metricName string) ([]common.AlertRule, error)

	// GetEnabledRules returns all enabled rules
	GetEnabledRules(ctx context.Context) ([]common.AlertRule, error)

	// CreateAlertEventIfNoneActive atomically inserts a new active event for the rule unless an
	// unresolved one exists inside the cooldown window
	CreateAlertEventIfNoneActive(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error)

	// ResolveAlertEvent sets the resolve timestamp on an unresolved event
	ResolveAlertEvent(ctx context.Context, eventID int64, resolvedAt int64) (bool, error)

	IsInterfaceNil() bool
}

// MetricReader defines the metric queries needed by the windowed evaluation paths
type MetricReader interface {
	// GetStatistics computes avg/min/max/count for a metric over the optional time window
	GetStatistics(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error)

	// CountErrorsSince returns the number of error log entries created at or after the provided timestamp
	CountErrorsSince(ctx context.Context, since int64) (int64, error)

	IsInterfaceNil() bool
}
