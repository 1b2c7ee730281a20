package alerting

import (
	"context"
	"errors"
	"testing"

	"github.com/careertrack/metrics-engine/common"
	"github.com/careertrack/metrics-engine/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockArgs() ArgsAlertEvaluator {
	return ArgsAlertEvaluator{
		Store:   &testsCommon.StoreStub{},
		Metrics: &testsCommon.StoreStub{},
	}
}

func TestNewAlertEvaluator(t *testing.T) {
	t.Parallel()

	t.Run("nil store should error", func(t *testing.T) {
		t.Parallel()

		args := createMockArgs()
		args.Store = nil

		evaluator, err := NewAlertEvaluator(args)
		assert.Nil(t, evaluator)
		assert.Equal(t, "nil alert store", err.Error())
	})
	t.Run("nil metric reader should error", func(t *testing.T) {
		t.Parallel()

		args := createMockArgs()
		args.Metrics = nil

		evaluator, err := NewAlertEvaluator(args)
		assert.Nil(t, evaluator)
		assert.Equal(t, "nil metric reader", err.Error())
	})
	t.Run("should work", func(t *testing.T) {
		t.Parallel()

		evaluator, err := NewAlertEvaluator(createMockArgs())
		require.NoError(t, err)
		assert.False(t, evaluator.IsInterfaceNil())
	})
}

func TestAlertEvaluator_Evaluate(t *testing.T) {
	t.Parallel()

	rule := common.AlertRule{
		ID:              7,
		RuleName:        "slow-responses",
		MetricName:      "api.response_time",
		Threshold:       1000,
		Condition:       common.ConditionGt,
		Enabled:         true,
		CooldownSeconds: 300,
	}

	t.Run("value over threshold triggers", func(t *testing.T) {
		t.Parallel()

		createdForRule := int64(0)
		store := &testsCommon.StoreStub{
			GetEnabledRulesForMetricHandler: func(ctx context.Context, metricName string) ([]common.AlertRule, error) {
				assert.Equal(t, "api.response_time", metricName)
				return []common.AlertRule{rule}, nil
			},
			CreateAlertEventIfNoneActiveHandler: func(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error) {
				createdForRule = ruleID
				assert.Equal(t, 300, cooldownSeconds)
				return 55, true, nil
			},
		}

		args := createMockArgs()
		args.Store = store
		evaluator, _ := NewAlertEvaluator(args)

		evaluator.Evaluate(context.Background(), "api.response_time", 1500)
		assert.Equal(t, int64(7), createdForRule)
	})
	t.Run("value under threshold does not trigger", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			GetEnabledRulesForMetricHandler: func(ctx context.Context, metricName string) ([]common.AlertRule, error) {
				return []common.AlertRule{rule}, nil
			},
			CreateAlertEventIfNoneActiveHandler: func(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error) {
				require.Fail(t, "should not have been called")
				return 0, false, nil
			},
		}

		args := createMockArgs()
		args.Store = store
		evaluator, _ := NewAlertEvaluator(args)

		evaluator.Evaluate(context.Background(), "api.response_time", 800)
	})
	t.Run("rule with unknown condition is skipped", func(t *testing.T) {
		t.Parallel()

		badRule := rule
		badRule.Condition = "contains"

		store := &testsCommon.StoreStub{
			GetEnabledRulesForMetricHandler: func(ctx context.Context, metricName string) ([]common.AlertRule, error) {
				return []common.AlertRule{badRule}, nil
			},
			CreateAlertEventIfNoneActiveHandler: func(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error) {
				require.Fail(t, "should not have been called")
				return 0, false, nil
			},
		}

		args := createMockArgs()
		args.Store = store
		evaluator, _ := NewAlertEvaluator(args)

		evaluator.Evaluate(context.Background(), "api.response_time", 1500)
	})
	t.Run("store errors are swallowed", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			GetEnabledRulesForMetricHandler: func(ctx context.Context, metricName string) ([]common.AlertRule, error) {
				return nil, errors.New("db closed")
			},
		}

		args := createMockArgs()
		args.Store = store
		evaluator, _ := NewAlertEvaluator(args)

		evaluator.Evaluate(context.Background(), "api.response_time", 1500)
	})
}

func TestAlertEvaluator_EvaluateAllRules(t *testing.T) {
	t.Parallel()

	highRule := common.AlertRule{
		ID:         1,
		RuleName:   "high-cpu",
		MetricName: "cpu",
		Threshold:  50,
		Condition:  common.ConditionGt,
		Enabled:    true,
	}
	idleRule := common.AlertRule{
		ID:         2,
		RuleName:   "idle-queue",
		MetricName: "queue.depth",
		Threshold:  1,
		Condition:  common.ConditionLt,
		Enabled:    true,
	}

	t.Run("triggers on window average, skips metrics without points", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			GetEnabledRulesHandler: func(ctx context.Context) ([]common.AlertRule, error) {
				return []common.AlertRule{highRule, idleRule}, nil
			},
			CreateAlertEventIfNoneActiveHandler: func(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error) {
				assert.Equal(t, int64(1), ruleID)
				return 10, true, nil
			},
		}
		metrics := &testsCommon.StoreStub{
			GetStatisticsHandler: func(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error) {
				if name == "cpu" {
					return common.MetricStatistics{Avg: 75, Min: 60, Max: 90, Count: 3}, nil
				}

				// no queue.depth points in the window
				return common.MetricStatistics{}, nil
			},
		}

		evaluator, _ := NewAlertEvaluator(ArgsAlertEvaluator{Store: store, Metrics: metrics})

		events := evaluator.EvaluateAllRules(context.Background())
		require.Equal(t, 1, len(events))
		assert.Equal(t, int64(10), events[0].ID)
		assert.Equal(t, int64(1), events[0].AlertRuleID)
	})
	t.Run("suppressed trigger yields no event", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			GetEnabledRulesHandler: func(ctx context.Context) ([]common.AlertRule, error) {
				return []common.AlertRule{highRule}, nil
			},
			CreateAlertEventIfNoneActiveHandler: func(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error) {
				return 0, false, nil
			},
		}
		metrics := &testsCommon.StoreStub{
			GetStatisticsHandler: func(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error) {
				return common.MetricStatistics{Avg: 75, Count: 3}, nil
			},
		}

		evaluator, _ := NewAlertEvaluator(ArgsAlertEvaluator{Store: store, Metrics: metrics})

		events := evaluator.EvaluateAllRules(context.Background())
		assert.Empty(t, events)
	})
}

func TestAlertEvaluator_CheckErrorRate(t *testing.T) {
	t.Parallel()

	errorRateRule := common.AlertRule{
		ID:         3,
		RuleName:   "error-spike",
		MetricName: ErrorRateMetricName,
		Enabled:    true,
	}

	t.Run("rate above 5 percent triggers", func(t *testing.T) {
		t.Parallel()

		triggered := false
		store := &testsCommon.StoreStub{
			GetEnabledRulesForMetricHandler: func(ctx context.Context, metricName string) ([]common.AlertRule, error) {
				assert.Equal(t, ErrorRateMetricName, metricName)
				return []common.AlertRule{errorRateRule}, nil
			},
			CreateAlertEventIfNoneActiveHandler: func(ctx context.Context, ruleID int64, triggeredAt int64, cooldownSeconds int) (int64, bool, error) {
				triggered = true
				return 20, true, nil
			},
		}
		metrics := &testsCommon.StoreStub{
			CountErrorsSinceHandler: func(ctx context.Context, since int64) (int64, error) {
				return 6, nil
			},
			GetStatisticsHandler: func(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error) {
				assert.Equal(t, RequestCountMetricName, name)
				return common.MetricStatistics{Count: 100}, nil
			},
		}

		evaluator, _ := NewAlertEvaluator(ArgsAlertEvaluator{Store: store, Metrics: metrics})

		evaluator.CheckErrorRate(context.Background())
		assert.True(t, triggered)
	})
	t.Run("rate at exactly 5 percent does not trigger", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			GetEnabledRulesForMetricHandler: func(ctx context.Context, metricName string) ([]common.AlertRule, error) {
				require.Fail(t, "should not have been called")
				return nil, nil
			},
		}
		metrics := &testsCommon.StoreStub{
			CountErrorsSinceHandler: func(ctx context.Context, since int64) (int64, error) {
				return 5, nil
			},
			GetStatisticsHandler: func(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error) {
				return common.MetricStatistics{Count: 100}, nil
			},
		}

		evaluator, _ := NewAlertEvaluator(ArgsAlertEvaluator{Store: store, Metrics: metrics})

		evaluator.CheckErrorRate(context.Background())
	})
	t.Run("no requests in window does not divide by zero", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			GetEnabledRulesForMetricHandler: func(ctx context.Context, metricName string) ([]common.AlertRule, error) {
				require.Fail(t, "should not have been called")
				return nil, nil
			},
		}
		metrics := &testsCommon.StoreStub{
			CountErrorsSinceHandler: func(ctx context.Context, since int64) (int64, error) {
				return 50, nil
			},
			GetStatisticsHandler: func(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error) {
				return common.MetricStatistics{}, nil
			},
		}

		evaluator, _ := NewAlertEvaluator(ArgsAlertEvaluator{Store: store, Metrics: metrics})

		evaluator.CheckErrorRate(context.Background())
	})
}

func TestAlertEvaluator_ResolveAlert(t *testing.T) {
	t.Parallel()

	t.Run("resolved", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			ResolveAlertEventHandler: func(ctx context.Context, eventID int64, resolvedAt int64) (bool, error) {
				assert.Equal(t, int64(42), eventID)
				assert.Greater(t, resolvedAt, int64(0))
				return true, nil
			},
		}

		args := createMockArgs()
		args.Store = store
		evaluator, _ := NewAlertEvaluator(args)

		assert.True(t, evaluator.ResolveAlert(context.Background(), 42))
	})
	t.Run("missing or already resolved", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			ResolveAlertEventHandler: func(ctx context.Context, eventID int64, resolvedAt int64) (bool, error) {
				return false, nil
			},
		}

		args := createMockArgs()
		args.Store = store
		evaluator, _ := NewAlertEvaluator(args)

		assert.False(t, evaluator.ResolveAlert(context.Background(), 42))
	})
	t.Run("store error yields false", func(t *testing.T) {
		t.Parallel()

		store := &testsCommon.StoreStub{
			ResolveAlertEventHandler: func(ctx context.Context, eventID int64, resolvedAt int64) (bool, error) {
				return false, errors.New("db closed")
			},
		}

		args := createMockArgs()
		args.Store = store
		evaluator, _ := NewAlertEvaluator(args)

		assert.False(t, evaluator.ResolveAlert(context.Background(), 42))
	})
}
