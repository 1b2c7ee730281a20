package factory

import (
	"context"

	"github.com/careertrack/metrics-engine/common"
)

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start()
	Address() string
	Close() error
}

// Ingestor defines the record surface plus the lifecycle the components handler drives
type Ingestor interface {
	Record(name string, value float64, tags map[string]string, recordedAt int64)
	RecordError(entry common.ErrorLogEntry)
	Close() error
	IsInterfaceNil() bool
}

// Evaluator defines the periodic sweep entry point scheduled by the components handler
type Evaluator interface {
	EvaluateAllRules(ctx context.Context) []common.AlertEvent
	ResolveAlert(ctx context.Context, eventID int64) bool
	IsInterfaceNil() bool
}

// Prober defines the resource sampling entry point scheduled by the components handler
type Prober interface {
	Sample(ctx context.Context)
	IsInterfaceNil() bool
}
