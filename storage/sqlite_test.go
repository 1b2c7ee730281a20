package storage

import (
	"context"
	"testing"
	"time"

	"github.com/careertrack/metrics-engine/common"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *sqliteStorage {
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.False(t, s.IsInterfaceNil())

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestSQLiteStorage_SaveMetricPoints(t *testing.T) {
	s := createTestStorage(t)

	ctx := context.Background()
	now := time.Now().Unix()

	points := []common.MetricPoint{
		{Name: "api.response_time", Value: 120.5, RecordedAt: now - 10},
		{Name: "api.response_time", Value: 98.1, Tags: map[string]string{"path": "/api/jobs"}, RecordedAt: now - 5},
		{Name: "api.requests", Value: 1, RecordedAt: now},
	}

	saved := s.SaveMetricPoints(ctx, points)
	require.Equal(t, 3, saved)

	// no loss, no duplication
	all, err := s.GetMetrics(ctx, "", "", "", 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 3, len(all))

	// name filter, newest first
	responseTimes, err := s.GetMetrics(ctx, "api.response_time", "", "", 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 2, len(responseTimes))
	require.Equal(t, 98.1, responseTimes[0].Value)
	require.Equal(t, map[string]string{"path": "/api/jobs"}, responseTimes[0].Tags)
	require.Equal(t, 120.5, responseTimes[1].Value)
	require.Nil(t, responseTimes[1].Tags)

	// tag filter
	tagged, err := s.GetMetrics(ctx, "api.response_time", "path", "/api/jobs", 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, len(tagged))
	require.Equal(t, 98.1, tagged[0].Value)

	// limit
	limited, err := s.GetMetrics(ctx, "", "", "", 0, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 1, len(limited))
}

func TestSQLiteStorage_GetMetricsInRange(t *testing.T) {
	s := createTestStorage(t)

	ctx := context.Background()

	_ = s.SaveMetricPoints(ctx, []common.MetricPoint{
		{Name: "m", Value: 1, RecordedAt: 100},
		{Name: "m", Value: 2, RecordedAt: 200},
		{Name: "m", Value: 3, RecordedAt: 300},
	})

	// end is exclusive
	points, err := s.GetMetricsInRange(ctx, 100, 300)
	require.NoError(t, err)
	require.Equal(t, 2, len(points))
	require.Equal(t, float64(1), points[0].Value)
	require.Equal(t, float64(2), points[1].Value)
}

func TestSQLiteStorage_GetStatistics(t *testing.T) {
	s := createTestStorage(t)

	ctx := context.Background()
	now := time.Now().Unix()

	_ = s.SaveMetricPoints(ctx, []common.MetricPoint{
		{Name: "cpu", Value: 10, RecordedAt: now - 30},
		{Name: "cpu", Value: 20, RecordedAt: now - 20},
		{Name: "cpu", Value: 30, RecordedAt: now - 10},
		{Name: "other", Value: 999, RecordedAt: now - 10},
	})

	stats, err := s.GetStatistics(ctx, "cpu", 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Count)
	require.Equal(t, float64(20), stats.Avg)
	require.Equal(t, float64(10), stats.Min)
	require.Equal(t, float64(30), stats.Max)

	// window excluding the oldest point
	stats, err = s.GetStatistics(ctx, "cpu", now-25, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Count)
	require.Equal(t, float64(25), stats.Avg)

	// unknown metric yields a zero-valued record, not an error
	stats, err = s.GetStatistics(ctx, "missing", 0, 0)
	require.NoError(t, err)
	require.Equal(t, common.MetricStatistics{}, stats)
}

func TestSQLiteStorage_DeleteMetricsBefore(t *testing.T) {
	s := createTestStorage(t)

	ctx := context.Background()
	now := time.Now().Unix()

	_ = s.SaveMetricPoints(ctx, []common.MetricPoint{
		{Name: "m", Value: 1, RecordedAt: now - 1000},
		{Name: "m", Value: 2, RecordedAt: now - 500},
		{Name: "m", Value: 3, RecordedAt: now},
	})

	deleted, err := s.DeleteMetricsBefore(ctx, now-600)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	// idempotent: nothing else is eligible
	deleted, err = s.DeleteMetricsBefore(ctx, now-600)
	require.NoError(t, err)
	require.Equal(t, int64(0), deleted)

	remaining, err := s.GetMetrics(ctx, "m", "", "", 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 2, len(remaining))
}

func TestSQLiteStorage_ErrorLogs(t *testing.T) {
	s := createTestStorage(t)

	ctx := context.Background()
	now := time.Now().Unix()

	id, err := s.SaveErrorLog(ctx, common.ErrorLogEntry{
		ErrorType:   "ValidationError",
		Message:     "missing field",
		RequestPath: "/api/resumes",
		HTTPMethod:  "POST",
		Severity:    common.SeverityWarning,
		CreatedAt:   now - 10,
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	_, err = s.SaveErrorLog(ctx, common.ErrorLogEntry{
		ErrorType:  "DatabaseError",
		Message:    "connection reset",
		StackTrace: "at line 42",
		Severity:   common.SeverityCritical,
		CreatedAt:  now,
	})
	require.NoError(t, err)

	all, err := s.GetErrorLogs(ctx, "", "", 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 2, len(all))
	require.Equal(t, "DatabaseError", all[0].ErrorType)
	require.Equal(t, "at line 42", all[0].StackTrace)
	require.Equal(t, "", all[0].RequestPath)

	warnings, err := s.GetErrorLogs(ctx, "", common.SeverityWarning, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, len(warnings))
	require.Equal(t, "ValidationError", warnings[0].ErrorType)
	require.Equal(t, "/api/resumes", warnings[0].RequestPath)

	count, err := s.CountErrorsSince(ctx, now-5)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, err = s.CountErrorsSince(ctx, now-100)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestSQLiteStorage_Ping(t *testing.T) {
	s := createTestStorage(t)

	require.NoError(t, s.Ping(context.Background()))
}
