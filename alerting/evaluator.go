package alerting

import (
	"context"
	"errors"
	"time"

	"github.com/careertrack/metrics-engine/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("alerting")

const (
	// sweep and error-rate computations look at a trailing 5 minute window
	windowSeconds = 300

	// ErrorRateMetricName is the metric a rule must watch to receive error-rate trips
	ErrorRateMetricName = "error_rate"

	// RequestCountMetricName is the per-request counter the error rate is computed against
	RequestCountMetricName = "api.requests"

	errorRateTripThreshold = 0.05
)

// ArgsAlertEvaluator holds the dependencies of the alert evaluator
type ArgsAlertEvaluator struct {
	Store   AlertStore
	Metrics MetricReader
}

type alertEvaluator struct {
	store   AlertStore
	metrics MetricReader
}

// NewAlertEvaluator creates a new alert evaluator instance
func NewAlertEvaluator(args ArgsAlertEvaluator) (*alertEvaluator, error) {
	if check.IfNil(args.Store) {
		return nil, errors.New("nil alert store")
	}
	if check.IfNil(args.Metrics) {
		return nil, errors.New("nil metric reader")
	}

	return &alertEvaluator{
		store:   args.Store,
		metrics: args.Metrics,
	}, nil
}

// Evaluate checks the instantaneous value against every enabled rule watching the metric.
// This is the per-write path: it sees single values, unlike the windowed EvaluateAllRules sweep.
// Failures are logged and swallowed so ingestion is never disturbed.
func (e *alertEvaluator) Evaluate(ctx context.Context, metricName string, value float64) {
	rules, err := e.store.GetEnabledRulesForMetric(ctx, metricName)
	if err != nil {
		log.Warn("failed to fetch rules for metric", "metric", metricName, "error", err)
		return
	}

	for _, rule := range rules {
		e.evaluateRule(ctx, rule, value)
	}
}

// EvaluateAllRules sweeps every enabled rule against the average value of its metric over the last
// 5 minutes. Rules whose metric had no points in the window are skipped. Returns the events created
// by this sweep.
func (e *alertEvaluator) EvaluateAllRules(ctx context.Context) []common.AlertEvent {
	rules, err := e.store.GetEnabledRules(ctx)
	if err != nil {
		log.Warn("failed to fetch enabled rules", "error", err)
		return nil
	}

	now := time.Now().Unix()
	triggered := make([]common.AlertEvent, 0)

	for _, rule := range rules {
		stats, errStats := e.metrics.GetStatistics(ctx, rule.MetricName, now-windowSeconds, 0)
		if errStats != nil {
			log.Warn("failed to fetch statistics for rule", "rule", rule.RuleName, "error", errStats)
			continue
		}
		if stats.Count == 0 {
			continue
		}

		event := e.evaluateRule(ctx, rule, stats.Avg)
		if event != nil {
			triggered = append(triggered, *event)
		}
	}

	return triggered
}

// CheckErrorRate computes the trailing 5 minute error rate (errors / requests) and, when it exceeds
// 5% and an enabled rule watches the error_rate metric, creates an event through the same
// cooldown-checked trigger used by the other evaluation paths.
func (e *alertEvaluator) CheckErrorRate(ctx context.Context) {
	now := time.Now().Unix()

	errorCount, err := e.metrics.CountErrorsSince(ctx, now-windowSeconds)
	if err != nil {
		log.Warn("failed to count recent errors", "error", err)
		return
	}

	requestStats, err := e.metrics.GetStatistics(ctx, RequestCountMetricName, now-windowSeconds, 0)
	if err != nil {
		log.Warn("failed to fetch request statistics", "error", err)
		return
	}
	if requestStats.Count == 0 {
		return
	}

	errorRate := float64(errorCount) / float64(requestStats.Count)
	if errorRate <= errorRateTripThreshold {
		return
	}

	rules, err := e.store.GetEnabledRulesForMetric(ctx, ErrorRateMetricName)
	if err != nil {
		log.Warn("failed to fetch error rate rules", "error", err)
		return
	}

	for _, rule := range rules {
		e.tryTrigger(ctx, rule, errorRate)
	}
}

// ResolveAlert marks the event as resolved. Returns false when the event does not exist or was
// already resolved.
func (e *alertEvaluator) ResolveAlert(ctx context.Context, eventID int64) bool {
	resolved, err := e.store.ResolveAlertEvent(ctx, eventID, time.Now().Unix())
	if err != nil {
		log.Warn("failed to resolve alert event", "event id", eventID, "error", err)
		return false
	}

	return resolved
}

func (e *alertEvaluator) evaluateRule(ctx context.Context, rule common.AlertRule, value float64) *common.AlertEvent {
	conditionMet, err := CompareCondition(value, rule.Condition, rule.Threshold)
	if err != nil {
		// rules with an uninterpretable condition are skipped, never fatal here
		log.Warn("skipping rule", "rule", rule.RuleName, "error", err)
		return nil
	}
	if !conditionMet {
		return nil
	}

	return e.tryTrigger(ctx, rule, value)
}

func (e *alertEvaluator) tryTrigger(ctx context.Context, rule common.AlertRule, value float64) *common.AlertEvent {
	triggeredAt := time.Now().Unix()

	eventID, created, err := e.store.CreateAlertEventIfNoneActive(ctx, rule.ID, triggeredAt, rule.CooldownSeconds)
	if err != nil {
		log.Warn("failed to trigger alert", "rule", rule.RuleName, "error", err)
		return nil
	}
	if !created {
		log.Debug("alert suppressed by cooldown", "rule", rule.RuleName, "value", value)
		return nil
	}

	log.Info("alert triggered", "rule", rule.RuleName, "metric", rule.MetricName,
		"value", value, "threshold", rule.Threshold, "condition", string(rule.Condition))

	return &common.AlertEvent{
		ID:          eventID,
		AlertRuleID: rule.ID,
		TriggeredAt: triggeredAt,
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *alertEvaluator) IsInterfaceNil() bool {
	return e == nil
}
