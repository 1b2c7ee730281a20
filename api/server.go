package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/careertrack/metrics-engine/alerting"
	"github.com/careertrack/metrics-engine/common"
	"github.com/careertrack/metrics-engine/probe"
	"github.com/gin-gonic/gin"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("api")

// ResponseTimeMetricName is the per-request latency metric recorded by the instrumentation middleware
const ResponseTimeMetricName = "api.response_time"

const snapshotWindowSeconds = 300

type server struct {
	router     *gin.Engine
	httpServer *http.Server
	storage    Storage
	ingestor   Ingestor
	evaluator  Evaluator
	aggregator Aggregator
	sweeper    Sweeper
	serviceKey string
	listenAddr string

	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// RecordMetricPayload represents the incoming JSON body on POST /api/metrics
type RecordMetricPayload struct {
	Name      string            `json:"name"`
	Value     *float64          `json:"value"`
	Tags      map[string]string `json:"tags"`
	Timestamp int64             `json:"timestamp"`
}

// RecordErrorPayload represents the incoming JSON body on POST /api/errors
type RecordErrorPayload struct {
	ErrorType   string `json:"errorType"`
	Message     string `json:"message"`
	StackTrace  string `json:"stackTrace"`
	RequestPath string `json:"requestPath"`
	HTTPMethod  string `json:"httpMethod"`
	UserID      string `json:"userId"`
	Severity    string `json:"severity"`
}

// AlertRulePayload represents the incoming JSON body on rule creation and update
type AlertRulePayload struct {
	RuleName        string  `json:"ruleName"`
	MetricName      string  `json:"metricName"`
	Threshold       float64 `json:"threshold"`
	Condition       string  `json:"condition"`
	Enabled         *bool   `json:"enabled"`
	CooldownSeconds int     `json:"cooldownSeconds"`
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	ListenAddress  string
	Storage        Storage
	Ingestor       Ingestor
	Evaluator      Evaluator
	Aggregator     Aggregator
	Sweeper        Sweeper
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Storage) {
		return nil, errors.New("storage is required")
	}
	if check.IfNil(args.Ingestor) {
		return nil, errors.New("ingestor is required")
	}
	if check.IfNil(args.Evaluator) {
		return nil, errors.New("evaluator is required")
	}
	if check.IfNil(args.Aggregator) {
		return nil, errors.New("aggregator is required")
	}
	if check.IfNil(args.Sweeper) {
		return nil, errors.New("sweeper is required")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		storage:        args.Storage,
		ingestor:       args.Ingestor,
		evaluator:      args.Evaluator,
		aggregator:     args.Aggregator,
		sweeper:        args.Sweeper,
		serviceKey:     args.ServiceKeyApi,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")
	api.Use(s.instrumentRequests(), s.authAPIKey())

	// Ingestion surface for instrumented callers
	api.POST("/metrics", s.handleRecordMetric)
	api.POST("/errors", s.handleRecordError)

	// Query surface
	api.GET("/metrics", s.handleGetMetrics)
	api.GET("/metrics/current", s.handleGetCurrentMetrics)
	api.GET("/metrics/:name/statistics", s.handleGetStatistics)
	api.GET("/errors", s.handleGetErrorLogs)

	// Alert administration
	api.POST("/alerts/rules", s.handleCreateAlertRule)
	api.PUT("/alerts/rules/:id", s.handleUpdateAlertRule)
	api.GET("/alerts/rules", s.handleGetAlertRules)
	api.GET("/alerts/active", s.handleGetActiveAlerts)
	api.POST("/alerts/events/:id/resolve", s.handleResolveAlert)

	// Maintenance
	api.POST("/maintenance/aggregate", s.handleAggregate)
	api.POST("/maintenance/cleanup", s.handleCleanup)

	// Availability probe, unauthenticated by design so external health checks can reach it
	s.router.GET("/api/available", s.handleAvailable)
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// instrumentRequests feeds the pipeline with its own response time and request counter metrics
func (s *server) instrumentRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		c.Next()

		elapsedMs := float64(time.Since(startedAt).Microseconds()) / 1000
		tags := map[string]string{
			"path":   c.FullPath(),
			"method": c.Request.Method,
		}

		s.ingestor.Record(ResponseTimeMetricName, elapsedMs, tags, 0)
		s.ingestor.Record(alerting.RequestCountMetricName, 1, tags, 0)
	}
}

// --- Handlers ---

func (s *server) handleRecordMetric(c *gin.Context) {
	var payload RecordMetricPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metric name is required"})
		return
	}
	if payload.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metric value is required"})
		return
	}

	s.ingestor.Record(payload.Name, *payload.Value, payload.Tags, payload.Timestamp)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleRecordError(c *gin.Context) {
	var payload RecordErrorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.ErrorType == "" || payload.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "errorType and message are required"})
		return
	}

	severity := common.Severity(payload.Severity)
	if payload.Severity != "" && !isValidSeverity(severity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
		return
	}

	s.ingestor.RecordError(common.ErrorLogEntry{
		ErrorType:   payload.ErrorType,
		Message:     payload.Message,
		StackTrace:  payload.StackTrace,
		RequestPath: payload.RequestPath,
		HTTPMethod:  payload.HTTPMethod,
		UserID:      payload.UserID,
		Severity:    severity,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleGetMetrics(c *gin.Context) {
	start, end, limit, ok := parseWindowParams(c)
	if !ok {
		return
	}

	tagKey, tagValue := splitTagFilter(c.Query("tag"))

	metrics, err := s.storage.GetMetrics(c.Request.Context(), c.Query("name"), tagKey, tagValue, start, end, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

func (s *server) handleGetStatistics(c *gin.Context) {
	start, end, _, ok := parseWindowParams(c)
	if !ok {
		return
	}

	stats, err := s.storage.GetStatistics(c.Request.Context(), c.Param("name"), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *server) handleGetErrorLogs(c *gin.Context) {
	start, end, limit, ok := parseWindowParams(c)
	if !ok {
		return
	}

	severity := common.Severity(c.Query("severity"))
	if severity != "" && !isValidSeverity(severity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
		return
	}

	entries, err := s.storage.GetErrorLogs(c.Request.Context(), c.Query("type"), severity, start, end, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"errors": entries})
}

// handleGetCurrentMetrics builds the dashboard snapshot. A store outage degrades the numbers to
// zero values instead of failing the request.
func (s *server) handleGetCurrentMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now().Unix()
	windowStart := now - snapshotWindowSeconds

	responseStats, err := s.storage.GetStatistics(ctx, ResponseTimeMetricName, windowStart, 0)
	if err != nil {
		log.Warn("failed to fetch response time statistics", "error", err)
	}

	requestStats, err := s.storage.GetStatistics(ctx, alerting.RequestCountMetricName, windowStart, 0)
	if err != nil {
		log.Warn("failed to fetch request statistics", "error", err)
	}

	errorCount, err := s.storage.CountErrorsSince(ctx, windowStart)
	if err != nil {
		log.Warn("failed to count recent errors", "error", err)
	}

	errorRate := float64(0)
	if requestStats.Count > 0 {
		errorRate = float64(errorCount) / float64(requestStats.Count)
	}

	c.JSON(http.StatusOK, common.CurrentMetrics{
		ResponseTime:      responseStats,
		RequestsPerSecond: float64(requestStats.Count) / snapshotWindowSeconds,
		ErrorRate:         errorRate,
		Resources:         probe.Snapshot(),
		GeneratedAt:       now,
	})
}

func (s *server) handleCreateAlertRule(c *gin.Context) {
	rule, ok := bindAlertRule(c, true)
	if !ok {
		return
	}

	id, err := s.storage.CreateAlertRule(c.Request.Context(), rule)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *server) handleUpdateAlertRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	rule, ok := bindAlertRule(c, false)
	if !ok {
		return
	}
	rule.ID = id

	updated, err := s.storage.UpdateAlertRule(c.Request.Context(), rule)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert rule not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleGetAlertRules(c *gin.Context) {
	rules, err := s.storage.GetAlertRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (s *server) handleGetActiveAlerts(c *gin.Context) {
	alerts, err := s.storage.GetActiveAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (s *server) handleResolveAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	resolved := s.evaluator.ResolveAlert(c.Request.Context(), id)
	if !resolved {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert event not found or already resolved"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleAggregate(c *gin.Context) {
	var payload struct {
		Period string `json:"period"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	period := common.AggregationPeriod(payload.Period)
	if period != common.PeriodHourly && period != common.PeriodDaily {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be hourly or daily"})
		return
	}

	err := s.aggregator.Aggregate(c.Request.Context(), period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleCleanup(c *gin.Context) {
	var payload struct {
		RetentionDays int `json:"retentionDays"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.RetentionDays <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "retentionDays must be positive"})
		return
	}

	deleted, err := s.sweeper.Cleanup(c.Request.Context(), payload.RetentionDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deletedCount": deleted})
}

func (s *server) handleAvailable(c *gin.Context) {
	err := s.storage.Ping(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{"available": err == nil})
}

// --- helpers ---

func bindAlertRule(c *gin.Context, requireNames bool) (common.AlertRule, bool) {
	var payload AlertRulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return common.AlertRule{}, false
	}

	if requireNames && (payload.RuleName == "" || payload.MetricName == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ruleName and metricName are required"})
		return common.AlertRule{}, false
	}
	if !alerting.IsValidCondition(common.Condition(payload.Condition)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "condition must be one of gt, gte, lt, lte, eq"})
		return common.AlertRule{}, false
	}
	if payload.CooldownSeconds < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cooldownSeconds cannot be negative"})
		return common.AlertRule{}, false
	}

	enabled := true
	if payload.Enabled != nil {
		enabled = *payload.Enabled
	}

	return common.AlertRule{
		RuleName:        payload.RuleName,
		MetricName:      payload.MetricName,
		Threshold:       payload.Threshold,
		Condition:       common.Condition(payload.Condition),
		Enabled:         enabled,
		CooldownSeconds: payload.CooldownSeconds,
	}, true
}

func parseWindowParams(c *gin.Context) (start int64, end int64, limit int, ok bool) {
	var err error

	start, err = parseInt64Query(c, "start")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return 0, 0, 0, false
	}
	end, err = parseInt64Query(c, "end")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return 0, 0, 0, false
	}

	limitValue, err := parseInt64Query(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
		return 0, 0, 0, false
	}

	return start, end, int(limitValue), true
}

func parseInt64Query(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}

	return strconv.ParseInt(raw, 10, 64)
}

func splitTagFilter(raw string) (string, string) {
	if raw == "" {
		return "", ""
	}

	parts := strings.SplitN(raw, "=", 2)
	if len(parts) != 2 {
		return "", ""
	}

	return parts[0], parts[1]
}

func isValidSeverity(severity common.Severity) bool {
	switch severity {
	case common.SeverityError, common.SeverityWarning, common.SeverityCritical:
		return true
	default:
		return false
	}
}
