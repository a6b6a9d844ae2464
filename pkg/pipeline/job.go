package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulsemetrics/feature-ingress/pkg/features"
	"github.com/pulsemetrics/feature-ingress/pkg/model"
	"github.com/pulsemetrics/feature-ingress/pkg/preprocessor"
)

// SubjectJob represents one pipeline invocation: the raw events collected
// for one subject over one time window.
type SubjectJob struct {
	ID        string                // Unique job identifier
	Subject   features.Subject      // Who the features are computed for
	Window    model.Window          // Time range the features are scoped to
	Raw       preprocessor.RawBatch // Provider-shaped input events
	CreatedAt time.Time             // Job creation timestamp
}

// NewSubjectJob creates a new subject job
func NewSubjectJob(subject features.Subject, window model.Window, raw preprocessor.RawBatch) SubjectJob {
	return SubjectJob{
		ID:        uuid.New().String(),
		Subject:   subject,
		Window:    window,
		Raw:       raw,
		CreatedAt: time.Now(),
	}
}

// SubjectResult represents the outcome of one subject job
type SubjectResult struct {
	JobID       string
	SubjectID   string
	WorkerID    int
	Success     bool
	Features    model.FeatureVector
	Canonical   preprocessor.CanonicalBatch
	Stats       []model.BatchStats
	Errors      []ErrorRecord
	Duration    time.Duration
	CompletedAt time.Time
}

// NewSubjectResult initializes a result for a job
func NewSubjectResult(job SubjectJob, workerID int) *SubjectResult {
	return &SubjectResult{
		JobID:     job.ID,
		SubjectID: job.Subject.AccountID,
		WorkerID:  workerID,
	}
}

// AddError appends an error record to the result
func (r *SubjectResult) AddError(record ErrorRecord) {
	r.Errors = append(r.Errors, record)
}

// HasErrors reports whether any error records were collected
func (r *SubjectResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Complete marks the result finished
func (r *SubjectResult) Complete(success bool) {
	r.Success = success
	r.CompletedAt = time.Now()
}

// SkippedRecords sums the skip counts across all source stats
func (r *SubjectResult) SkippedRecords() int {
	var skipped int
	for _, stats := range r.Stats {
		skipped += stats.Skipped
	}
	return skipped
}
