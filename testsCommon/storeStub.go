package testsCommon

import (
	"context"

	"github.com/careertrack/metrics-engine/common"
)

// StoreStub -
type StoreStub struct {
	SaveMetricPointHandler              func(ctx context.Context, point common.MetricPoint) error
	SaveMetricPointsHandler             func(ctx context.Context, points []common.MetricPoint) int
	GetMetricsHandler                   func(ctx context.Context, name string, tagKey string, tagValue string, start int64, end int64, limit int) ([]common.MetricPoint, error)
	GetMetricsInRangeHandler            func(ctx context.Context, start int64, end int64) ([]common.MetricPoint, error)
	GetStatisticsHandler                func(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error)
	DeleteMetricsBeforeHandler          func(ctx context.Context, cutoff int64) (int64, error)
	SaveErrorLogHandler                 func(ctx context.Context, entry common.ErrorLogEntry) (int64, error)
	GetErrorLogsHandler                 func(ctx context.Context, errorType string, severity common.Severity, start int64, end int64, limit int) ([]common.ErrorLogEntry, error)
	CountErrorsSinceHandler             func(ctx context.Context, since int64) (int64, error)
	CreateAlertRuleHandler              func(ctx context.Context, rule common.AlertRule) (int64, error)
	UpdateAlertRuleHandler              func(ctx context.Context, rule common.AlertRule) (bool, error)
	GetAlertRulesHandler                func(ctx context.Context) ([]common.AlertRule, error)
	GetEnabledRulesHandler              func(ctx context.Context) ([]common.AlertRule, error)
	GetEnabledRulesForMetricHandler     func(ctx context.Context, metricName string) ([]common.AlertRule, error)
	GetRecentAlertForRuleHandler        func(ctx context.Context, ruleID int64, cooldownSeconds int) (*common.AlertEvent, error)
	CreateAlertEventIfNoneActiveHandler func(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error)
	GetActiveAlertsHandler              func(ctx context.Context) ([]common.AlertEvent, error)
	GetAlertEventHandler                func(ctx context.Context, eventID int64) (*common.AlertEvent, error)
	ResolveAlertEventHandler            func(ctx context.Context, eventID int64, resolvedAt int64) (bool, error)
	PingHandler                         func(ctx context.Context) error
	CloseHandler                        func() error
}

// SaveMetricPoint -
func (stub *StoreStub) SaveMetricPoint(ctx context.Context, point common.MetricPoint) error {
	if stub.SaveMetricPointHandler != nil {
		return stub.SaveMetricPointHandler(ctx, point)
	}

	return nil
}

// SaveMetricPoints -
func (stub *StoreStub) SaveMetricPoints(ctx context.Context, points []common.MetricPoint) int {
	if stub.SaveMetricPointsHandler != nil {
		return stub.SaveMetricPointsHandler(ctx, points)
	}

	return len(points)
}

// GetMetrics -
func (stub *StoreStub) GetMetrics(ctx context.Context, name string, tagKey string, tagValue string, start int64, end int64, limit int) ([]common.MetricPoint, error) {
	if stub.GetMetricsHandler != nil {
		return stub.GetMetricsHandler(ctx, name, tagKey, tagValue, start, end, limit)
	}

	return make([]common.MetricPoint, 0), nil
}

// GetMetricsInRange -
func (stub *StoreStub) GetMetricsInRange(ctx context.Context, start int64, end int64) ([]common.MetricPoint, error) {
	if stub.GetMetricsInRangeHandler != nil {
		return stub.GetMetricsInRangeHandler(ctx, start, end)
	}

	return make([]common.MetricPoint, 0), nil
}

// GetStatistics -
func (stub *StoreStub) GetStatistics(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error) {
	if stub.GetStatisticsHandler != nil {
		return stub.GetStatisticsHandler(ctx, name, start, end)
	}

	return common.MetricStatistics{}, nil
}

// DeleteMetricsBefore -
func (stub *StoreStub) DeleteMetricsBefore(ctx context.Context, cutoff int64) (int64, error) {
	if stub.DeleteMetricsBeforeHandler != nil {
		return stub.DeleteMetricsBeforeHandler(ctx, cutoff)
	}

	return 0, nil
}

// SaveErrorLog -
func (stub *StoreStub) SaveErrorLog(ctx context.Context, entry common.ErrorLogEntry) (int64, error) {
	if stub.SaveErrorLogHandler != nil {
		return stub.SaveErrorLogHandler(ctx, entry)
	}

	return 0, nil
}

// GetErrorLogs -
func (stub *StoreStub) GetErrorLogs(ctx context.Context, errorType string, severity common.Severity, start int64, end int64, limit int) ([]common.ErrorLogEntry, error) {
	if stub.GetErrorLogsHandler != nil {
		return stub.GetErrorLogsHandler(ctx, errorType, severity, start, end, limit)
	}

	return make([]common.ErrorLogEntry, 0), nil
}

// CountErrorsSince -
func (stub *StoreStub) CountErrorsSince(ctx context.Context, since int64) (int64, error) {
	if stub.CountErrorsSinceHandler != nil {
		return stub.CountErrorsSinceHandler(ctx, since)
	}

	return 0, nil
}

// CreateAlertRule -
func (stub *StoreStub) CreateAlertRule(ctx context.Context, rule common.AlertRule) (int64, error) {
	if stub.CreateAlertRuleHandler != nil {
		return stub.CreateAlertRuleHandler(ctx, rule)
	}

	return 0, nil
}

// UpdateAlertRule -
func (stub *StoreStub) UpdateAlertRule(ctx context.Context, rule common.AlertRule) (bool, error) {
	if stub.UpdateAlertRuleHandler != nil {
		return stub.UpdateAlertRuleHandler(ctx, rule)
	}

	return true, nil
}

// GetAlertRules -
func (stub *StoreStub) GetAlertRules(ctx context.Context) ([]common.AlertRule, error) {
	if stub.GetAlertRulesHandler != nil {
		return stub.GetAlertRulesHandler(ctx)
	}

	return make([]common.AlertRule, 0), nil
}

// GetEnabledRules -
func (stub *StoreStub) GetEnabledRules(ctx context.Context) ([]common.AlertRule, error) {
	if stub.GetEnabledRulesHandler != nil {
		return stub.GetEnabledRulesHandler(ctx)
	}

	return make([]common.AlertRule, 0), nil
}

// GetEnabledRulesForMetric -
func (stub *StoreStub) GetEnabledRulesForMetric(ctx context.Context, metricName string) ([]common.AlertRule, error) {
	if stub.GetEnabledRulesForMetricHandler != nil {
		return stub.GetEnabledRulesForMetricHandler(ctx, metricName)
	}

	return make([]common.AlertRule, 0), nil
}

// GetRecentAlertForRule -
func (stub *StoreStub) GetRecentAlertForRule(ctx context.Context, ruleID int64, cooldownSeconds int) (*common.AlertEvent, error) {
	if stub.GetRecentAlertForRuleHandler != nil {
		return stub.GetRecentAlertForRuleHandler(ctx, ruleID, cooldownSeconds)
	}

	return nil, nil
}

// CreateAlertEventIfNoneActive -
func (stub *StoreStub) CreateAlertEventIfNoneActive(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error) {
	if stub.CreateAlertEventIfNoneActiveHandler != nil {
		return stub.CreateAlertEventIfNoneActiveHandler(ctx, ruleID, triggeredAt, cooldownSeconds)
	}

	return 0, true, nil
}

// GetActiveAlerts -
func (stub *StoreStub) GetActiveAlerts(ctx context.Context) ([]common.AlertEvent, error) {
	if stub.GetActiveAlertsHandler != nil {
		return stub.GetActiveAlertsHandler(ctx)
	}

	return make([]common.AlertEvent, 0), nil
}

// GetAlertEvent -
func (stub *StoreStub) GetAlertEvent(ctx context.Context, eventID int64) (*common.AlertEvent, error) {
	if stub.GetAlertEventHandler != nil {
		return stub.GetAlertEventHandler(ctx, eventID)
	}

	return nil, nil
}

// ResolveAlertEvent -
func (stub *StoreStub) ResolveAlertEvent(ctx context.Context, eventID int64, resolvedAt int64) (bool, error) {
	if stub.ResolveAlertEventHandler != nil {
		return stub.ResolveAlertEventHandler(ctx, eventID, resolvedAt)
	}

	return true, nil
}

// Ping -
func (stub *StoreStub) Ping(ctx context.Context) error {
	if stub.PingHandler != nil {
		return stub.PingHandler(ctx)
	}

	return nil
}

// Close -
func (stub *StoreStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *StoreStub) IsInterfaceNil() bool {
	return stub == nil
}
