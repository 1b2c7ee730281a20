package storage

import (
	"context"
	"testing"
	"time"

	"github.com/careertrack/metrics-engine/common"
	"github.com/stretchr/testify/require"
)

func createTestRule(t *testing.T, s *sqliteStorage, name string, metric string) int64 {
	id, err := s.CreateAlertRule(context.Background(), common.AlertRule{
		RuleName:        name,
		MetricName:      metric,
		Threshold:       1000,
		Condition:       common.ConditionGt,
		Enabled:         true,
		CooldownSeconds: 300,
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	return id
}

func TestSQLiteStorage_AlertRuleCRUD(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	id := createTestRule(t, s, "slow-responses", "api.response_time")

	// rule names are unique
	_, err := s.CreateAlertRule(ctx, common.AlertRule{
		RuleName:        "slow-responses",
		MetricName:      "api.response_time",
		Threshold:       500,
		Condition:       common.ConditionGte,
		Enabled:         true,
		CooldownSeconds: 60,
	})
	require.Error(t, err)

	rules, err := s.GetAlertRules(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, len(rules))
	require.Equal(t, "slow-responses", rules[0].RuleName)
	require.Equal(t, common.ConditionGt, rules[0].Condition)
	require.True(t, rules[0].Enabled)
	require.Greater(t, rules[0].CreatedAt, int64(0))

	// update mutable fields
	updated, err := s.UpdateAlertRule(ctx, common.AlertRule{
		ID:              id,
		Threshold:       2000,
		Condition:       common.ConditionGte,
		Enabled:         false,
		CooldownSeconds: 120,
	})
	require.NoError(t, err)
	require.True(t, updated)

	rules, err = s.GetAlertRules(ctx)
	require.NoError(t, err)
	require.Equal(t, float64(2000), rules[0].Threshold)
	require.Equal(t, common.ConditionGte, rules[0].Condition)
	require.False(t, rules[0].Enabled)
	require.Equal(t, 120, rules[0].CooldownSeconds)

	// unknown id
	updated, err = s.UpdateAlertRule(ctx, common.AlertRule{ID: 12345, Condition: common.ConditionGt})
	require.NoError(t, err)
	require.False(t, updated)
}

func TestSQLiteStorage_GetEnabledRulesForMetric(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	_ = createTestRule(t, s, "rule-a", "api.response_time")
	_ = createTestRule(t, s, "rule-b", "api.response_time")
	_ = createTestRule(t, s, "rule-c", "error_rate")
	disabledID := createTestRule(t, s, "rule-d", "api.response_time")

	updated, err := s.UpdateAlertRule(ctx, common.AlertRule{
		ID:              disabledID,
		Threshold:       1000,
		Condition:       common.ConditionGt,
		Enabled:         false,
		CooldownSeconds: 300,
	})
	require.NoError(t, err)
	require.True(t, updated)

	rules, err := s.GetEnabledRulesForMetric(ctx, "api.response_time")
	require.NoError(t, err)
	require.Equal(t, 2, len(rules))

	enabled, err := s.GetEnabledRules(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, len(enabled))
}

func TestSQLiteStorage_CreateAlertEventIfNoneActive(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	ruleID := createTestRule(t, s, "slow-responses", "api.response_time")
	now := time.Now().Unix()

	// first trip creates an event
	eventID, created, err := s.CreateAlertEventIfNoneActive(ctx, ruleID, now, 300)
	require.NoError(t, err)
	require.True(t, created)
	require.Greater(t, eventID, int64(0))

	// second trip inside the cooldown window is suppressed
	_, created, err = s.CreateAlertEventIfNoneActive(ctx, ruleID, now+10, 300)
	require.NoError(t, err)
	require.False(t, created)

	active, err := s.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, len(active))
	require.Equal(t, ruleID, active[0].AlertRuleID)
	require.True(t, active[0].IsActive())

	// resolving frees the rule for a new trip
	resolved, err := s.ResolveAlertEvent(ctx, eventID, now+20)
	require.NoError(t, err)
	require.True(t, resolved)

	newEventID, created, err := s.CreateAlertEventIfNoneActive(ctx, ruleID, now+30, 300)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, eventID, newEventID)
}

func TestSQLiteStorage_CreateAlertEventIfNoneActive_OldUnresolvedOutsideCooldown(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	ruleID := createTestRule(t, s, "slow-responses", "api.response_time")
	now := time.Now().Unix()

	_, created, err := s.CreateAlertEventIfNoneActive(ctx, ruleID, now-1000, 300)
	require.NoError(t, err)
	require.True(t, created)

	// the old event is unresolved but outside the cooldown window, a new trip is allowed
	_, created, err = s.CreateAlertEventIfNoneActive(ctx, ruleID, now, 300)
	require.NoError(t, err)
	require.True(t, created)

	active, err := s.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, len(active))
}

func TestSQLiteStorage_GetRecentAlertForRule(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	ruleID := createTestRule(t, s, "slow-responses", "api.response_time")
	now := time.Now().Unix()

	// no events yet
	event, err := s.GetRecentAlertForRule(ctx, ruleID, 300)
	require.NoError(t, err)
	require.Nil(t, event)

	eventID, created, err := s.CreateAlertEventIfNoneActive(ctx, ruleID, now, 300)
	require.NoError(t, err)
	require.True(t, created)

	event, err = s.GetRecentAlertForRule(ctx, ruleID, 300)
	require.NoError(t, err)
	require.NotNil(t, event)
	require.Equal(t, eventID, event.ID)

	// resolved events are not returned
	_, err = s.ResolveAlertEvent(ctx, eventID, now+5)
	require.NoError(t, err)

	event, err = s.GetRecentAlertForRule(ctx, ruleID, 300)
	require.NoError(t, err)
	require.Nil(t, event)
}

func TestSQLiteStorage_ResolveAlertEvent(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	ruleID := createTestRule(t, s, "slow-responses", "api.response_time")
	now := time.Now().Unix()

	eventID, _, err := s.CreateAlertEventIfNoneActive(ctx, ruleID, now, 300)
	require.NoError(t, err)

	resolved, err := s.ResolveAlertEvent(ctx, eventID, now+10)
	require.NoError(t, err)
	require.True(t, resolved)

	event, err := s.GetAlertEvent(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, event)
	require.False(t, event.IsActive())
	require.Equal(t, now+10, *event.ResolvedAt)

	// already resolved: returns false and does not alter the row
	resolved, err = s.ResolveAlertEvent(ctx, eventID, now+99)
	require.NoError(t, err)
	require.False(t, resolved)

	event, err = s.GetAlertEvent(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, now+10, *event.ResolvedAt)

	// nonexistent id
	resolved, err = s.ResolveAlertEvent(ctx, 98765, now)
	require.NoError(t, err)
	require.False(t, resolved)
}
