package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/careertrack/metrics-engine/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("ingest")

const (
	defaultFlushInterval       = 5 * time.Second
	defaultMaxBufferSize       = 100
	defaultEvaluationWorkers   = 2
	defaultEvaluationQueueSize = 128

	finalFlushTimeout = 5 * time.Second
)

type jobKind int

const (
	jobMetric jobKind = iota
	jobErrorRate
)

type evalJob struct {
	kind       jobKind
	metricName string
	value      float64
}

// ArgsMetricIngestor holds the dependencies and tuning knobs of the metric ingestor.
// Non-positive numeric values fall back to the package defaults.
type ArgsMetricIngestor struct {
	Store               MetricWriter
	Evaluator           Evaluator
	FlushInterval       time.Duration
	MaxBufferSize       int
	EvaluationWorkers   int
	EvaluationQueueSize int
}

// metricIngestor buffers metric writes and flushes them to the store in batches. It owns the
// pending buffer exclusively: no other component reads or writes it.
type metricIngestor struct {
	store         MetricWriter
	evaluator     Evaluator
	flushInterval time.Duration
	maxBufferSize int

	mutBuffer sync.Mutex
	buffer    []common.MetricPoint

	flushTrigger chan struct{}
	evalJobs     chan evalJob

	mutCancel  sync.Mutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewMetricIngestor creates a new metric ingestor instance
func NewMetricIngestor(args ArgsMetricIngestor) (*metricIngestor, error) {
	if check.IfNil(args.Store) {
		return nil, errors.New("nil metric writer")
	}
	if check.IfNil(args.Evaluator) {
		return nil, errors.New("nil evaluator")
	}

	flushInterval := args.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	maxBufferSize := args.MaxBufferSize
	if maxBufferSize <= 0 {
		maxBufferSize = defaultMaxBufferSize
	}
	workers := args.EvaluationWorkers
	if workers <= 0 {
		workers = defaultEvaluationWorkers
	}
	queueSize := args.EvaluationQueueSize
	if queueSize <= 0 {
		queueSize = defaultEvaluationQueueSize
	}

	mi := &metricIngestor{
		store:         args.Store,
		evaluator:     args.Evaluator,
		flushInterval: flushInterval,
		maxBufferSize: maxBufferSize,
		buffer:        make([]common.MetricPoint, 0, maxBufferSize),
		flushTrigger:  make(chan struct{}, 1),
		evalJobs:      make(chan evalJob, queueSize),
	}

	mi.start(workers)

	return mi, nil
}

func (mi *metricIngestor) start(workers int) {
	mi.mutCancel.Lock()
	defer mi.mutCancel.Unlock()

	var ctx context.Context
	ctx, mi.cancelFunc = context.WithCancel(context.Background())

	mi.wg.Add(1)
	go mi.flushLoop(ctx)

	mi.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go mi.evalWorker(ctx)
	}
}

// Record buffers a metric point and schedules its alert evaluation. It never blocks on persistence
// or evaluation: the point lands in the in-memory buffer and the call returns. A zero recordedAt
// defaults to the current time.
func (mi *metricIngestor) Record(name string, value float64, tags map[string]string, recordedAt int64) {
	if recordedAt == 0 {
		recordedAt = time.Now().Unix()
	}

	point := common.MetricPoint{
		Name:       name,
		Value:      value,
		Tags:       tags,
		RecordedAt: recordedAt,
	}

	mi.mutBuffer.Lock()
	mi.buffer = append(mi.buffer, point)
	shouldFlush := len(mi.buffer) >= mi.maxBufferSize
	mi.mutBuffer.Unlock()

	if shouldFlush {
		select {
		case mi.flushTrigger <- struct{}{}:
		default:
		}
	}

	mi.enqueue(evalJob{kind: jobMetric, metricName: name, value: value})
}

// RecordError persists an error log entry and schedules an error-rate evaluation. Persistence
// failures are logged and swallowed, error capture must never fail the caller. A zero CreatedAt
// defaults to the current time, an empty severity to "error".
func (mi *metricIngestor) RecordError(entry common.ErrorLogEntry) {
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	if entry.Severity == "" {
		entry.Severity = common.SeverityError
	}

	ctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()

	_, err := mi.store.SaveErrorLog(ctx, entry)
	if err != nil {
		log.Warn("failed to save error log", "type", entry.ErrorType, "error", err)
	}

	mi.enqueue(evalJob{kind: jobErrorRate})
}

// a full queue drops the job: evaluation is advisory and must not gate ingestion throughput
func (mi *metricIngestor) enqueue(job evalJob) {
	select {
	case mi.evalJobs <- job:
	default:
		log.Warn("evaluation queue full, dropping job", "metric", job.metricName)
	}
}

func (mi *metricIngestor) flushLoop(ctx context.Context) {
	defer mi.wg.Done()

	ticker := time.NewTicker(mi.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mi.flush(ctx)
		case <-mi.flushTrigger:
			mi.flush(ctx)
		}
	}
}

// flush swaps out the current buffer under lock and persists the taken segment outside of it, so
// points recorded during the insert land in the fresh buffer and are never lost
func (mi *metricIngestor) flush(ctx context.Context) {
	mi.mutBuffer.Lock()
	if len(mi.buffer) == 0 {
		mi.mutBuffer.Unlock()
		return
	}
	batch := mi.buffer
	mi.buffer = make([]common.MetricPoint, 0, mi.maxBufferSize)
	mi.mutBuffer.Unlock()

	saved := mi.store.SaveMetricPoints(ctx, batch)
	if saved < len(batch) {
		log.Warn("metric batch partially persisted", "saved", saved, "total", len(batch))
	}

	log.Debug("flushed metric batch", "count", saved)
}

func (mi *metricIngestor) evalWorker(ctx context.Context) {
	defer mi.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-mi.evalJobs:
			switch job.kind {
			case jobMetric:
				mi.evaluator.Evaluate(ctx, job.metricName, job.value)
			case jobErrorRate:
				mi.evaluator.CheckErrorRate(ctx)
			}
		}
	}
}

// Close stops the background loops and attempts one best-effort final flush of the pending buffer
func (mi *metricIngestor) Close() error {
	mi.mutCancel.Lock()
	defer mi.mutCancel.Unlock()

	if mi.cancelFunc == nil {
		return nil
	}

	mi.cancelFunc()
	mi.cancelFunc = nil
	mi.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	mi.flush(ctx)

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (mi *metricIngestor) IsInterfaceNil() bool {
	return mi == nil
}
