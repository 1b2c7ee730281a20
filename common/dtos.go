package common

// Severity classifies a captured error log entry
type Severity string

// Supported error severities
const (
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Condition is the comparison operator of an alert rule threshold
type Condition string

// Supported alert rule conditions. ConditionEq uses exact float equality, no epsilon.
const (
	ConditionGt  Condition = "gt"
	ConditionGte Condition = "gte"
	ConditionLt  Condition = "lt"
	ConditionLte Condition = "lte"
	ConditionEq  Condition = "eq"
)

// AggregationPeriod selects the rollup bucket size
type AggregationPeriod string

// Supported aggregation periods
const (
	PeriodHourly AggregationPeriod = "hourly"
	PeriodDaily  AggregationPeriod = "daily"
)

// MetricPoint is a single named, timestamped measurement. Immutable once written.
type MetricPoint struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Value      float64           `json:"value"`
	Tags       map[string]string `json:"tags,omitempty"`
	RecordedAt int64             `json:"recordedAt"` // unix seconds
}

// ErrorLogEntry is a captured application error. Immutable once written.
type ErrorLogEntry struct {
	ID          int64    `json:"id"`
	ErrorType   string   `json:"errorType"`
	Message     string   `json:"message"`
	StackTrace  string   `json:"stackTrace,omitempty"`
	RequestPath string   `json:"requestPath,omitempty"`
	HTTPMethod  string   `json:"httpMethod,omitempty"`
	UserID      string   `json:"userId,omitempty"`
	Severity    Severity `json:"severity"`
	CreatedAt   int64    `json:"createdAt"`
}

// AlertRule is a named threshold condition over a metric
type AlertRule struct {
	ID              int64     `json:"id"`
	RuleName        string    `json:"ruleName"`
	MetricName      string    `json:"metricName"`
	Threshold       float64   `json:"threshold"`
	Condition       Condition `json:"condition"`
	Enabled         bool      `json:"enabled"`
	CooldownSeconds int       `json:"cooldownSeconds"`
	CreatedAt       int64     `json:"createdAt"`
	UpdatedAt       int64     `json:"updatedAt"`
}

// AlertEvent records one trip of an alert rule. A nil ResolvedAt means the event
// is still active; resolving is the only mutation and happens exactly once.
type AlertEvent struct {
	ID          int64  `json:"id"`
	AlertRuleID int64  `json:"alertRuleId"`
	TriggeredAt int64  `json:"triggeredAt"`
	ResolvedAt  *int64 `json:"resolvedAt,omitempty"`
}

// IsActive returns true if the event was not resolved yet
func (e *AlertEvent) IsActive() bool {
	return e.ResolvedAt == nil
}

// MetricStatistics holds the aggregate values over a metric window
type MetricStatistics struct {
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int64   `json:"count"`
}

// ResourceUsage is a snapshot of the process resource consumption
type ResourceUsage struct {
	Goroutines     int    `json:"goroutines"`
	HeapAllocBytes uint64 `json:"heapAllocBytes"`
	SysBytes       uint64 `json:"sysBytes"`
	GCPauseTotalNs uint64 `json:"gcPauseTotalNs"`
	NumCPU         int    `json:"numCpu"`
}

// CurrentMetrics is the combined dashboard snapshot
type CurrentMetrics struct {
	ResponseTime      MetricStatistics `json:"responseTime"`
	RequestsPerSecond float64          `json:"requestsPerSecond"`
	ErrorRate         float64          `json:"errorRate"`
	Resources         ResourceUsage    `json:"resources"`
	GeneratedAt       int64            `json:"generatedAt"`
}
