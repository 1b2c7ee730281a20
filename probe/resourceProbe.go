package probe

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/careertrack/metrics-engine/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("probe")

// Metric names emitted by the resource probe
const (
	GoroutinesMetricName = "process.goroutines"
	HeapAllocMetricName  = "process.heap_alloc_bytes"
	SysBytesMetricName   = "process.sys_bytes"
	GCPauseMetricName    = "process.gc_pause_total_ns"
)

// ArgsResourceProbe holds the dependencies of the resource probe
type ArgsResourceProbe struct {
	Recorder Recorder
}

// resourceProbe periodically samples the process resource usage and records the readings as
// ordinary metric points, so the dashboard snapshot and the alert rules can consume them
type resourceProbe struct {
	recorder Recorder
}

// NewResourceProbe creates a new resource probe instance
func NewResourceProbe(args ArgsResourceProbe) (*resourceProbe, error) {
	if check.IfNil(args.Recorder) {
		return nil, errors.New("nil recorder")
	}

	return &resourceProbe{
		recorder: args.Recorder,
	}, nil
}

// Sample records one reading of every probed resource metric
func (p *resourceProbe) Sample(_ context.Context) {
	usage := Snapshot()
	now := time.Now().Unix()

	p.recorder.Record(GoroutinesMetricName, float64(usage.Goroutines), nil, now)
	p.recorder.Record(HeapAllocMetricName, float64(usage.HeapAllocBytes), nil, now)
	p.recorder.Record(SysBytesMetricName, float64(usage.SysBytes), nil, now)
	p.recorder.Record(GCPauseMetricName, float64(usage.GCPauseTotalNs), nil, now)

	log.Debug("sampled process resources", "goroutines", usage.Goroutines, "heap alloc", usage.HeapAllocBytes)
}

// Snapshot returns the current process resource usage
func Snapshot() common.ResourceUsage {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return common.ResourceUsage{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: memStats.HeapAlloc,
		SysBytes:       memStats.Sys,
		GCPauseTotalNs: memStats.PauseTotalNs,
		NumCPU:         runtime.NumCPU(),
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (p *resourceProbe) IsInterfaceNil() bool {
	return p == nil
}
