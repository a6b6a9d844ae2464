package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/pulsemetrics/feature-ingress/pkg/anonymizer"
	"github.com/pulsemetrics/feature-ingress/pkg/config"
	"github.com/pulsemetrics/feature-ingress/pkg/features"
	"github.com/pulsemetrics/feature-ingress/pkg/preprocessor"
)

// Manager wires the anonymizer, preprocessor and extractor together and
// fans subject jobs out over a worker pool. It never holds a resolve
// capability: trusted consumers construct their own TrustedReader over the
// content store.
type Manager struct {
	cfg          *config.Config
	store        anonymizer.ContentStore
	pre          *preprocessor.Preprocessor
	extractor    *features.Extractor
	errorHandler *ErrorHandler
	metrics      *PipelineMetrics
	logger       *zap.Logger
	workerCount  int
}

// New constructs a pipeline from configuration. A missing privacy key fails
// here, at construction time, since every anonymization call depends on it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var store anonymizer.ContentStore
	if cfg.ContentStore != nil {
		pgStore, err := anonymizer.NewPostgresStore(ctx, cfg.ContentStore, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create content store: %w", err)
		}
		store = pgStore
	} else {
		store = anonymizer.NewMemoryStore()
	}

	return NewWithStore(cfg, store, logger)
}

// NewWithStore constructs a pipeline over a caller-supplied content store,
// for hosts that manage cache lifetime themselves.
func NewWithStore(cfg *config.Config, store anonymizer.ContentStore, logger *zap.Logger) (*Manager, error) {
	anon, err := anonymizer.New(cfg.PrivacyKey, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create anonymizer: %w", err)
	}

	pre, err := preprocessor.New(anon, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create preprocessor: %w", err)
	}

	extractor, err := features.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	workerCount := cfg.WorkerPoolSize
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	return &Manager{
		cfg:          cfg,
		store:        store,
		pre:          pre,
		extractor:    extractor,
		errorHandler: NewErrorHandler(logger),
		metrics:      NewPipelineMetrics(logger),
		logger:       logger.Named("pipeline"),
		workerCount:  workerCount,
	}, nil
}

// ContentStore exposes the re-identification cache store so the host can
// manage its lifecycle (purge, swap, TTL policy) and so the trusted model
// stage can build a TrustedReader over it.
func (m *Manager) ContentStore() anonymizer.ContentStore {
	return m.store
}

// PurgeContent drops every cached original-content entry.
func (m *Manager) PurgeContent(ctx context.Context) error {
	return m.store.Purge(ctx)
}

// Metrics returns the run metrics collector.
func (m *Manager) Metrics() *PipelineMetrics {
	return m.metrics
}

// ProcessSubject runs the pipeline for a single subject inline.
func (m *Manager) ProcessSubject(ctx context.Context, job SubjectJob) SubjectResult {
	worker := NewWorker(0, m.pre, m.extractor, m.errorHandler, m.logger)
	result := worker.ProcessJob(ctx, job)
	m.metrics.RecordResult(result)
	return result
}

// Run fans the jobs out over the worker pool and collects one result per
// job. Individual subject failures do not abort the run.
func (m *Manager) Run(ctx context.Context, jobs []SubjectJob) ([]SubjectResult, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	workerCount := m.workerCount
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	m.logger.Info("Starting pipeline run",
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", workerCount))

	jobQueue := make(chan SubjectJob, len(jobs))
	resultQueue := make(chan SubjectResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		worker := NewWorker(i+1, m.pre, m.extractor, m.errorHandler, m.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Start(ctx, jobQueue, resultQueue)
		}()
	}

	for _, job := range jobs {
		jobQueue <- job
	}
	close(jobQueue)

	go func() {
		wg.Wait()
		close(resultQueue)
	}()

	results := make([]SubjectResult, 0, len(jobs))
	for result := range resultQueue {
		m.metrics.RecordResult(result)
		results = append(results, result)
	}

	m.metrics.Finish()
	m.metrics.LogSummary()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("pipeline run interrupted: %w", err)
	}

	return results, nil
}
