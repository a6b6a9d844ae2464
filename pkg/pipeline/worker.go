package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pulsemetrics/feature-ingress/pkg/features"
	"github.com/pulsemetrics/feature-ingress/pkg/model"
	"github.com/pulsemetrics/feature-ingress/pkg/preprocessor"
)

// WorkerState represents the current state of a worker
type WorkerState string

const (
	WorkerStateIdle      WorkerState = "idle"
	WorkerStateWorking   WorkerState = "working"
	WorkerStateCompleted WorkerState = "completed"
)

// Worker executes subject jobs: normalize, scope to the window, extract.
type Worker struct {
	ID           int
	pre          *preprocessor.Preprocessor
	extractor    *features.Extractor
	errorHandler *ErrorHandler
	logger       *zap.Logger
	state        WorkerState
	stateLock    sync.RWMutex
}

// NewWorker creates a new worker
func NewWorker(
	id int,
	pre *preprocessor.Preprocessor,
	extractor *features.Extractor,
	errorHandler *ErrorHandler,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		ID:           id,
		pre:          pre,
		extractor:    extractor,
		errorHandler: errorHandler,
		logger:       logger.With(zap.Int("workerID", id)),
		state:        WorkerStateIdle,
	}
}

// setState updates the worker state
func (w *Worker) setState(state WorkerState) {
	w.stateLock.Lock()
	defer w.stateLock.Unlock()

	prevState := w.state
	w.state = state

	if prevState != state {
		w.logger.Debug("Worker state changed",
			zap.String("from", string(prevState)),
			zap.String("to", string(state)))
	}
}

// Start begins the worker processing loop
func (w *Worker) Start(ctx context.Context, jobs <-chan SubjectJob, results chan<- SubjectResult) {
	w.setState(WorkerStateWorking)
	w.logger.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Worker stopping due to context cancellation")
			w.setState(WorkerStateCompleted)
			return

		case job, ok := <-jobs:
			if !ok {
				w.setState(WorkerStateCompleted)
				return
			}

			result := w.ProcessJob(ctx, job)

			select {
			case results <- result:
			case <-ctx.Done():
				w.logger.Warn("Context cancelled while sending result",
					zap.String("jobID", job.ID))
				w.setState(WorkerStateCompleted)
				return
			}
		}
	}
}

// ProcessJob runs the full pipeline for one subject
func (w *Worker) ProcessJob(ctx context.Context, job SubjectJob) SubjectResult {
	w.setState(WorkerStateWorking)
	defer w.setState(WorkerStateIdle)

	result := NewSubjectResult(job, w.ID)
	startTime := time.Now()

	w.logger.Info("Starting subject pipeline",
		zap.String("jobID", job.ID),
		zap.Time("windowStart", job.Window.Start),
		zap.Time("windowEnd", job.Window.End))

	// Normalize every source; skips are audit data, not failures
	canonical := w.pre.All(ctx, job.Raw)
	result.Canonical = canonical
	result.Stats = canonical.Stats

	for _, stats := range canonical.Stats {
		for _, skip := range stats.Skips {
			w.errorHandler.RecordError(
				NewErrorRecord(nil, ErrorCategoryValidationSkip).
					WithSource(skip.Source).
					WithSubject(job.Subject.AccountID).
					WithRecord(skip.RecordID))
		}
	}

	// The extractor expects records pre-scoped to the window; tasks are
	// exempt because task age is measured against the current time.
	result.Features = w.extractor.ExtractAll(
		model.FilterWindow(canonical.Meetings, job.Window),
		model.FilterWindow(canonical.Messages, job.Window),
		canonical.Tasks,
		model.FilterWindow(canonical.WorkLogs, job.Window),
		job.Subject,
		job.Window,
	)

	result.Complete(true)
	result.Duration = time.Since(startTime)

	w.logger.Info("Subject pipeline completed",
		zap.String("jobID", job.ID),
		zap.Int("skippedRecords", result.SkippedRecords()),
		zap.Duration("duration", result.Duration))

	return *result
}
