package factory

import (
	"context"
	"sync"
	"time"

	"github.com/careertrack/metrics-engine/aggregation"
	"github.com/careertrack/metrics-engine/alerting"
	"github.com/careertrack/metrics-engine/api"
	"github.com/careertrack/metrics-engine/common"
	"github.com/careertrack/metrics-engine/commonGo"
	"github.com/careertrack/metrics-engine/config"
	"github.com/careertrack/metrics-engine/ingest"
	"github.com/careertrack/metrics-engine/probe"
	"github.com/careertrack/metrics-engine/retention"
	"github.com/careertrack/metrics-engine/storage"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("factory")

const retentionJobInterval = time.Hour

type componentsHandler struct {
	cfg           config.Config
	store         api.Storage
	ingestor      Ingestor
	evaluator     Evaluator
	aggregator    api.Aggregator
	sweeper       api.Sweeper
	resourceProbe Prober
	server        Server

	mutCancel sync.Mutex
	cancel    func()
}

// NewComponentsHandler creates and wires all pipeline components. Dependencies are constructed
// explicitly here, once, and passed down: no component reaches for process-wide state.
func NewComponentsHandler(
	serviceKeyApi string,
	cfg config.Config,
) (*componentsHandler, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	evaluator, err := alerting.NewAlertEvaluator(alerting.ArgsAlertEvaluator{
		Store:   store,
		Metrics: store,
	})
	if err != nil {
		return nil, err
	}

	ingestor, err := ingest.NewMetricIngestor(ingest.ArgsMetricIngestor{
		Store:               store,
		Evaluator:           evaluator,
		FlushInterval:       time.Duration(cfg.FlushIntervalSeconds) * time.Second,
		MaxBufferSize:       cfg.MaxBufferSize,
		EvaluationWorkers:   cfg.EvaluationWorkers,
		EvaluationQueueSize: cfg.EvaluationQueueSize,
	})
	if err != nil {
		return nil, err
	}

	aggregator, err := aggregation.NewAggregator(aggregation.ArgsAggregator{
		Store: store,
	})
	if err != nil {
		return nil, err
	}

	sweeper, err := retention.NewRetentionSweeper(retention.ArgsRetentionSweeper{
		Store: store,
	})
	if err != nil {
		return nil, err
	}

	resourceProbe, err := probe.NewResourceProbe(probe.ArgsResourceProbe{
		Recorder: ingestor,
	})
	if err != nil {
		return nil, err
	}

	server, err := api.NewServer(api.ArgsWebServer{
		ServiceKeyApi:  serviceKeyApi,
		ListenAddress:  cfg.ListenAddress,
		Storage:        store,
		Ingestor:       ingestor,
		Evaluator:      evaluator,
		Aggregator:     aggregator,
		Sweeper:        sweeper,
		GeneralHandler: api.CORSMiddleware,
	})
	if err != nil {
		return nil, err
	}

	return &componentsHandler{
		cfg:           cfg,
		store:         store,
		ingestor:      ingestor,
		evaluator:     evaluator,
		aggregator:    aggregator,
		sweeper:       sweeper,
		resourceProbe: resourceProbe,
		server:        server,
	}, nil
}

// GetStore returns the storage component
func (ch *componentsHandler) GetStore() api.Storage {
	return ch.store
}

// GetIngestor returns the metric ingestor component
func (ch *componentsHandler) GetIngestor() Ingestor {
	return ch.ingestor
}

// GetEvaluator returns the alert evaluator component
func (ch *componentsHandler) GetEvaluator() Evaluator {
	return ch.evaluator
}

// GetSweeper returns the retention sweeper component
func (ch *componentsHandler) GetSweeper() api.Sweeper {
	return ch.sweeper
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the server and the background jobs
func (ch *componentsHandler) Start() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		return
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())

	ch.server.Start()

	commonGo.CronJobStarter(ctx, ch.runSweep, time.Duration(ch.cfg.SweepIntervalSeconds)*time.Second)
	commonGo.CronJobStarter(ctx, ch.resourceProbe.Sample, time.Duration(ch.cfg.ProbeIntervalSeconds)*time.Second)
	commonGo.CronJobStarter(ctx, ch.runRetention, retentionJobInterval)
	commonGo.AlignedCronJobStarter(ctx, ch.runAggregation, time.Hour)
}

func (ch *componentsHandler) runSweep(ctx context.Context) {
	triggered := ch.evaluator.EvaluateAllRules(ctx)
	if len(triggered) > 0 {
		log.Info("periodic sweep triggered alerts", "count", len(triggered))
	}
}

func (ch *componentsHandler) runRetention(ctx context.Context) {
	_, err := ch.sweeper.Cleanup(ctx, ch.cfg.RetentionDays)
	if err != nil {
		log.Warn("retention cleanup failed", "error", err)
	}
}

// runAggregation fires at the top of every hour. The daily pass runs strictly after the hourly one,
// in the same goroutine, and only when a full day has just closed.
func (ch *componentsHandler) runAggregation(ctx context.Context) {
	err := ch.aggregator.Aggregate(ctx, common.PeriodHourly)
	if err != nil {
		log.Warn("hourly aggregation failed", "error", err)
	}

	if time.Now().UTC().Hour() != 0 {
		return
	}

	err = ch.aggregator.Aggregate(ctx, common.PeriodDaily)
	if err != nil {
		log.Warn("daily aggregation failed", "error", err)
	}
}

// Close stops the background jobs and closes the inner components
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel == nil {
		return
	}

	ch.cancel()
	ch.cancel = nil

	_ = ch.server.Close()
	_ = ch.ingestor.Close()
	_ = ch.store.Close()
}
