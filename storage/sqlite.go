package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/careertrack/metrics-engine/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

var log = logger.GetOrCreate("storage")

const defaultQueryLimit = 1000

// sqliteStorage is the sqlite implementation for the metric and alert stores
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates the database file and schema
func NewSQLiteStorage(dbPath string) (*sqliteStorage, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; a second pooled connection would also see a brand new
	// database when running on :memory:
	db.SetMaxOpenConns(1)

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqliteStorage{
		db: db,
	}, nil
}

func prepareDirectories(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS metric_points (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		value       REAL    NOT NULL,
		tags        TEXT,
		recorded_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_metric_points_name_time ON metric_points(name, recorded_at);
	CREATE INDEX IF NOT EXISTS idx_metric_points_recorded_at ON metric_points(recorded_at);

	CREATE TABLE IF NOT EXISTS error_logs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		error_type   TEXT    NOT NULL,
		message      TEXT    NOT NULL,
		stack_trace  TEXT,
		request_path TEXT,
		http_method  TEXT,
		user_id      TEXT,
		severity     TEXT    NOT NULL,
		created_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_error_logs_type ON error_logs(error_type);
	CREATE INDEX IF NOT EXISTS idx_error_logs_severity ON error_logs(severity);
	CREATE INDEX IF NOT EXISTS idx_error_logs_created_at ON error_logs(created_at);

	CREATE TABLE IF NOT EXISTS alert_rules (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		rule_name        TEXT    NOT NULL UNIQUE,
		metric_name      TEXT    NOT NULL,
		threshold        REAL    NOT NULL,
		condition        TEXT    NOT NULL,
		enabled          INTEGER NOT NULL DEFAULT 1,
		cooldown_seconds INTEGER NOT NULL,
		created_at       INTEGER NOT NULL,
		updated_at       INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_alert_rules_metric ON alert_rules(metric_name, enabled);

	CREATE TABLE IF NOT EXISTS alert_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		alert_rule_id INTEGER NOT NULL REFERENCES alert_rules(id) ON DELETE CASCADE,
		triggered_at  INTEGER NOT NULL,
		resolved_at   INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_alert_events_rule ON alert_events(alert_rule_id, triggered_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, _ = db.Exec("PRAGMA foreign_keys = ON;")

	return nil
}

// SaveMetricPoint inserts a single metric point
func (s *sqliteStorage) SaveMetricPoint(ctx context.Context, point common.MetricPoint) error {
	tagsValue, err := serializeTags(point.Tags)
	if err != nil {
		return fmt.Errorf("failed to serialize tags for metric %s: %w", point.Name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metric_points (name, value, tags, recorded_at)
		VALUES (?, ?, ?, ?)
	`, point.Name, point.Value, tagsValue, point.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert metric point: %w", err)
	}

	return nil
}

// SaveMetricPoints inserts a batch of metric points, attempting the remaining entries when one fails.
// Returns the number of points actually persisted. Delivery is best effort: failed entries are not re-queued.
func (s *sqliteStorage) SaveMetricPoints(ctx context.Context, points []common.MetricPoint) int {
	saved := 0
	for _, point := range points {
		err := s.SaveMetricPoint(ctx, point)
		if err != nil {
			log.Warn("failed to save metric point", "name", point.Name, "error", err)
			continue
		}
		saved++
	}

	return saved
}

// GetMetrics returns metric points matching the optional name, tag and time filters, newest first
func (s *sqliteStorage) GetMetrics(
	ctx context.Context,
	name string,
	tagKey string,
	tagValue string,
	start int64,
	end int64,
	limit int,
) ([]common.MetricPoint, error) {
	query := "SELECT id, name, value, tags, recorded_at FROM metric_points"
	conditions := make([]string, 0)
	args := make([]interface{}, 0)

	if name != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, name)
	}
	if start > 0 {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, start)
	}
	if end > 0 {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, end)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	query += " ORDER BY recorded_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.MetricPoint, 0)
	for rows.Next() {
		point, rawTags, errScan := scanMetricPoint(rows)
		if errScan != nil {
			return nil, errScan
		}

		if tagKey != "" && gjson.Get(rawTags, tagKey).String() != tagValue {
			continue
		}

		results = append(results, point)
	}

	return results, rows.Err()
}

// GetMetricsInRange returns all metric points with start <= recorded_at < end, in timestamp order
func (s *sqliteStorage) GetMetricsInRange(ctx context.Context, start int64, end int64) ([]common.MetricPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, value, tags, recorded_at
		FROM metric_points
		WHERE recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.MetricPoint, 0)
	for rows.Next() {
		point, _, errScan := scanMetricPoint(rows)
		if errScan != nil {
			return nil, errScan
		}
		results = append(results, point)
	}

	return results, rows.Err()
}

// GetStatistics computes avg/min/max/count for a metric over the optional time window.
// An empty window yields a zero-valued record, never an error.
func (s *sqliteStorage) GetStatistics(ctx context.Context, name string, start int64, end int64) (common.MetricStatistics, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(value), 0), COALESCE(MIN(value), 0), COALESCE(MAX(value), 0)
		FROM metric_points
		WHERE name = ?`
	args := []interface{}{name}

	if start > 0 {
		query += " AND recorded_at >= ?"
		args = append(args, start)
	}
	if end > 0 {
		query += " AND recorded_at <= ?"
		args = append(args, end)
	}

	var stats common.MetricStatistics
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.Count, &stats.Avg, &stats.Min, &stats.Max)
	if err != nil {
		return common.MetricStatistics{}, fmt.Errorf("statistics query failed: %w", err)
	}

	return stats, nil
}

// DeleteMetricsBefore removes all metric points older than the provided cutoff and returns the deleted count
func (s *sqliteStorage) DeleteMetricsBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM metric_points WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old metric points: %w", err)
	}

	return res.RowsAffected()
}

// SaveErrorLog inserts an error log entry and returns its id
func (s *sqliteStorage) SaveErrorLog(ctx context.Context, entry common.ErrorLogEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO error_logs (error_type, message, stack_trace, request_path, http_method, user_id, severity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ErrorType, entry.Message, nullable(entry.StackTrace), nullable(entry.RequestPath),
		nullable(entry.HTTPMethod), nullable(entry.UserID), string(entry.Severity), entry.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert error log: %w", err)
	}

	return res.LastInsertId()
}

// GetErrorLogs returns error log entries matching the optional filters, newest first
func (s *sqliteStorage) GetErrorLogs(
	ctx context.Context,
	errorType string,
	severity common.Severity,
	start int64,
	end int64,
	limit int,
) ([]common.ErrorLogEntry, error) {
	query := "SELECT id, error_type, message, stack_trace, request_path, http_method, user_id, severity, created_at FROM error_logs"
	conditions := make([]string, 0)
	args := make([]interface{}, 0)

	if errorType != "" {
		conditions = append(conditions, "error_type = ?")
		args = append(args, errorType)
	}
	if severity != "" {
		conditions = append(conditions, "severity = ?")
		args = append(args, string(severity))
	}
	if start > 0 {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, start)
	}
	if end > 0 {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, end)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.ErrorLogEntry, 0)
	for rows.Next() {
		var entry common.ErrorLogEntry
		var stackTrace, requestPath, httpMethod, userID sql.NullString
		var severityStr string

		err = rows.Scan(&entry.ID, &entry.ErrorType, &entry.Message, &stackTrace, &requestPath,
			&httpMethod, &userID, &severityStr, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}

		entry.StackTrace = stackTrace.String
		entry.RequestPath = requestPath.String
		entry.HTTPMethod = httpMethod.String
		entry.UserID = userID.String
		entry.Severity = common.Severity(severityStr)

		results = append(results, entry)
	}

	return results, rows.Err()
}

// CountErrorsSince returns the number of error log entries created at or after the provided timestamp
func (s *sqliteStorage) CountErrorsSince(ctx context.Context, since int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM error_logs WHERE created_at >= ?", since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error count query failed: %w", err)
	}

	return count, nil
}

// Ping executes a trivial read to verify the store is reachable
func (s *sqliteStorage) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Close closes the database
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteStorage) IsInterfaceNil() bool {
	return s == nil
}

func serializeTags(tags map[string]string) (interface{}, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	buff, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}

	return string(buff), nil
}

func scanMetricPoint(rows *sql.Rows) (common.MetricPoint, string, error) {
	var point common.MetricPoint
	var rawTags sql.NullString

	err := rows.Scan(&point.ID, &point.Name, &point.Value, &rawTags, &point.RecordedAt)
	if err != nil {
		return common.MetricPoint{}, "", err
	}

	if rawTags.Valid && rawTags.String != "" {
		tags := make(map[string]string)
		err = json.Unmarshal([]byte(rawTags.String), &tags)
		if err != nil {
			log.Warn("failed to deserialize metric tags", "id", point.ID, "error", err)
		} else {
			point.Tags = tags
		}
	}

	return point, rawTags.String, nil
}

func nullable(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
