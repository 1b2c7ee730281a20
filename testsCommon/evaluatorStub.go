package testsCommon

import (
	"context"

	"github.com/careertrack/metrics-engine/common"
)

// EvaluatorStub -
type EvaluatorStub struct {
	EvaluateHandler         func(ctx context.Context, metricName string, value float64)
	EvaluateAllRulesHandler func(ctx context.Context) []common.AlertEvent
	CheckErrorRateHandler   func(ctx context.Context)
	ResolveAlertHandler     func(ctx context.Context, eventID int64) bool
}

// Evaluate -
func (stub *EvaluatorStub) Evaluate(ctx context.Context, metricName string, value float64) {
	if stub.EvaluateHandler != nil {
		stub.EvaluateHandler(ctx, metricName, value)
	}
}

// EvaluateAllRules -
func (stub *EvaluatorStub) EvaluateAllRules(ctx context.Context) []common.AlertEvent {
	if stub.EvaluateAllRulesHandler != nil {
		return stub.EvaluateAllRulesHandler(ctx)
	}

	return make([]common.AlertEvent, 0)
}

// CheckErrorRate -
func (stub *EvaluatorStub) CheckErrorRate(ctx context.Context) {
	if stub.CheckErrorRateHandler != nil {
		stub.CheckErrorRateHandler(ctx)
	}
}

// ResolveAlert -
func (stub *EvaluatorStub) ResolveAlert(ctx context.Context, eventID int64) bool {
	if stub.ResolveAlertHandler != nil {
		return stub.ResolveAlertHandler(ctx, eventID)
	}

	return true
}

// IsInterfaceNil -
func (stub *EvaluatorStub) IsInterfaceNil() bool {
	return stub == nil
}
