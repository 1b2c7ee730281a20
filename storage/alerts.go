package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/careertrack/metrics-engine/common"
)

// CreateAlertRule inserts a new alert rule and returns its id. Rule names are unique,
// a duplicate name surfaces as an error to the administrative caller.
func (s *sqliteStorage) CreateAlertRule(ctx context.Context, rule common.AlertRule) (int64, error) {
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_rules (rule_name, metric_name, threshold, condition, enabled, cooldown_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rule.RuleName, rule.MetricName, rule.Threshold, string(rule.Condition), boolToInt(rule.Enabled),
		rule.CooldownSeconds, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert rule: %w", err)
	}

	return res.LastInsertId()
}

// UpdateAlertRule updates the mutable fields of an alert rule. Returns false when the id is unknown.
func (s *sqliteStorage) UpdateAlertRule(ctx context.Context, rule common.AlertRule) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alert_rules
		SET threshold = ?, condition = ?, enabled = ?, cooldown_seconds = ?, updated_at = ?
		WHERE id = ?
	`, rule.Threshold, string(rule.Condition), boolToInt(rule.Enabled), rule.CooldownSeconds,
		time.Now().Unix(), rule.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update alert rule: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// GetAlertRules returns all alert rules, ordered by id
func (s *sqliteStorage) GetAlertRules(ctx context.Context) ([]common.AlertRule, error) {
	return s.queryAlertRules(ctx, alertRuleSelect+" ORDER BY id")
}

// GetEnabledRulesForMetric returns the enabled rules watching the provided metric name
func (s *sqliteStorage) GetEnabledRulesForMetric(ctx context.Context, metricName string) ([]common.AlertRule, error) {
	return s.queryAlertRules(ctx, alertRuleSelect+" WHERE metric_name = ? AND enabled = 1 ORDER BY id", metricName)
}

// GetEnabledRules returns all enabled rules
func (s *sqliteStorage) GetEnabledRules(ctx context.Context) ([]common.AlertRule, error) {
	return s.queryAlertRules(ctx, alertRuleSelect+" WHERE enabled = 1 ORDER BY id")
}

const alertRuleSelect = "SELECT id, rule_name, metric_name, threshold, condition, enabled, cooldown_seconds, created_at, updated_at FROM alert_rules"

func (s *sqliteStorage) queryAlertRules(ctx context.Context, query string, args ...interface{}) ([]common.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("alert rules query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.AlertRule, 0)
	for rows.Next() {
		var rule common.AlertRule
		var condition string
		var enabled int

		err = rows.Scan(&rule.ID, &rule.RuleName, &rule.MetricName, &rule.Threshold, &condition,
			&enabled, &rule.CooldownSeconds, &rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			return nil, err
		}

		rule.Condition = common.Condition(condition)
		rule.Enabled = enabled != 0

		results = append(results, rule)
	}

	return results, rows.Err()
}

// GetRecentAlertForRule returns the most recent unresolved event for the rule triggered inside the
// cooldown window, or nil when there is none
func (s *sqliteStorage) GetRecentAlertForRule(ctx context.Context, ruleID int64, cooldownSeconds int) (*common.AlertEvent, error) {
	cutoff := time.Now().Unix() - int64(cooldownSeconds)

	row := s.db.QueryRowContext(ctx, `
		SELECT id, alert_rule_id, triggered_at, resolved_at
		FROM alert_events
		WHERE alert_rule_id = ? AND resolved_at IS NULL AND triggered_at >= ?
		ORDER BY triggered_at DESC
		LIMIT 1
	`, ruleID, cutoff)

	return scanAlertEvent(row)
}

// CreateAlertEventIfNoneActive inserts a new active event for the rule unless an unresolved one already
// exists inside the cooldown window. Check and insert happen in a single statement, so concurrent
// evaluators cannot both trigger the same rule. Returns the event id and whether it was created.
func (s *sqliteStorage) CreateAlertEventIfNoneActive(
	ctx context.Context,
	ruleID int64,
	triggeredAt int64,
	cooldownSeconds int,
) (int64, bool, error) {
	cutoff := triggeredAt - int64(cooldownSeconds)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_events (alert_rule_id, triggered_at)
		SELECT ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM alert_events
			WHERE alert_rule_id = ? AND resolved_at IS NULL AND triggered_at >= ?
		)
	`, ruleID, triggeredAt, ruleID, cutoff)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert alert event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}

	return id, true, nil
}

// GetActiveAlerts returns all unresolved alert events, newest first
func (s *sqliteStorage) GetActiveAlerts(ctx context.Context) ([]common.AlertEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, alert_rule_id, triggered_at, resolved_at
		FROM alert_events
		WHERE resolved_at IS NULL
		ORDER BY triggered_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("active alerts query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.AlertEvent, 0)
	for rows.Next() {
		var event common.AlertEvent
		var resolvedAt sql.NullInt64

		err = rows.Scan(&event.ID, &event.AlertRuleID, &event.TriggeredAt, &resolvedAt)
		if err != nil {
			return nil, err
		}
		if resolvedAt.Valid {
			event.ResolvedAt = &resolvedAt.Int64
		}

		results = append(results, event)
	}

	return results, rows.Err()
}

// GetAlertEvent returns the event with the provided id, or nil when not found
func (s *sqliteStorage) GetAlertEvent(ctx context.Context, eventID int64) (*common.AlertEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, alert_rule_id, triggered_at, resolved_at
		FROM alert_events
		WHERE id = ?
	`, eventID)

	return scanAlertEvent(row)
}

// ResolveAlertEvent sets resolved_at on an unresolved event. Returns false when the event does not
// exist or was already resolved; no row is altered in that case.
func (s *sqliteStorage) ResolveAlertEvent(ctx context.Context, eventID int64, resolvedAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alert_events SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL
	`, resolvedAt, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve alert event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func scanAlertEvent(row *sql.Row) (*common.AlertEvent, error) {
	var event common.AlertEvent
	var resolvedAt sql.NullInt64

	err := row.Scan(&event.ID, &event.AlertRuleID, &event.TriggeredAt, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if resolvedAt.Valid {
		event.ResolvedAt = &resolvedAt.Int64
	}

	return &event, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
