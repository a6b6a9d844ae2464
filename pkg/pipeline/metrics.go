package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pulsemetrics/feature-ingress/pkg/model"
)

// SourceMetrics tracks normalization counts for one source category
type SourceMetrics struct {
	Input     int
	Processed int
	Skipped   int
}

// PipelineMetrics tracks metrics across a pipeline run
type PipelineMetrics struct {
	mu                sync.Mutex
	logger            *zap.Logger
	StartTime         time.Time
	EndTime           time.Time
	SubjectsProcessed int
	SubjectsFailed    int
	SourceMetrics     map[string]*SourceMetrics
	ErrorCounts       map[ErrorCategory]int
	WorkerUtilization map[int]time.Duration
}

// NewPipelineMetrics creates a new metrics collector
func NewPipelineMetrics(logger *zap.Logger) *PipelineMetrics {
	return &PipelineMetrics{
		logger:            logger.Named("metrics"),
		StartTime:         time.Now(),
		SourceMetrics:     make(map[string]*SourceMetrics),
		ErrorCounts:       make(map[ErrorCategory]int),
		WorkerUtilization: make(map[int]time.Duration),
	}
}

// RecordBatch folds one normalization batch into the source totals
func (m *PipelineMetrics) RecordBatch(stats model.BatchStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	source, ok := m.SourceMetrics[stats.Source]
	if !ok {
		source = &SourceMetrics{}
		m.SourceMetrics[stats.Source] = source
	}

	source.Input += stats.Input
	source.Processed += stats.Processed
	source.Skipped += stats.Skipped
}

// RecordResult folds one subject result into the run totals
func (m *PipelineMetrics) RecordResult(result SubjectResult) {
	for _, stats := range result.Stats {
		m.RecordBatch(stats)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if result.Success {
		m.SubjectsProcessed++
	} else {
		m.SubjectsFailed++
	}

	for _, record := range result.Errors {
		m.ErrorCounts[record.Category]++
	}

	m.WorkerUtilization[result.WorkerID] += result.Duration
}

// Finish marks the run complete
func (m *PipelineMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// Duration returns the total run duration so far
func (m *PipelineMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// LogSummary emits the run totals
func (m *PipelineMetrics) LogSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()

	fields := []zap.Field{
		zap.Int("subjectsProcessed", m.SubjectsProcessed),
		zap.Int("subjectsFailed", m.SubjectsFailed),
	}

	for source, sm := range m.SourceMetrics {
		fields = append(fields,
			zap.Int(source+".processed", sm.Processed),
			zap.Int(source+".skipped", sm.Skipped))
	}

	m.logger.Info("Pipeline run summary", fields...)
}
