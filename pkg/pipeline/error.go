package pipeline

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionSkipRecord indicates the current record should be skipped
	ActionSkipRecord
	// ActionSkipSubject indicates the current subject should be skipped
	ActionSkipSubject
	// ActionAbort indicates the entire pipeline run should be aborted
	ActionAbort
)

// ErrorCategory defines categories of errors during a pipeline run
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryValidationSkip
	ErrorCategoryDegenerateInput
	ErrorCategoryReidentificationMiss
	ErrorCategoryRecordLevel
	ErrorCategorySubjectLevel
	ErrorCategoryConfiguration
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryValidationSkip:
		return "ValidationSkip"
	case ErrorCategoryDegenerateInput:
		return "DegenerateInput"
	case ErrorCategoryReidentificationMiss:
		return "ReidentificationMiss"
	case ErrorCategoryRecordLevel:
		return "RecordLevel"
	case ErrorCategorySubjectLevel:
		return "SubjectLevel"
	case ErrorCategoryConfiguration:
		return "Configuration"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during a pipeline run
type ErrorRecord struct {
	Category    ErrorCategory
	Source      string // Source category (e.g. "meetings")
	SubjectID   string
	RecordID    string
	Err         error
	Message     string // Derived from Err but stored for serialization
	Timestamp   time.Time
	Recoverable bool
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		Err:         err,
		Timestamp:   time.Now(),
		Recoverable: category < ErrorCategorySubjectLevel,
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithSource adds the source category to the error record
func (r ErrorRecord) WithSource(source string) ErrorRecord {
	r.Source = source
	return r
}

// WithSubject adds the subject to the error record
func (r ErrorRecord) WithSubject(subjectID string) ErrorRecord {
	r.SubjectID = subjectID
	return r
}

// WithRecord adds the offending record identifier to the error record
func (r ErrorRecord) WithRecord(recordID string) ErrorRecord {
	r.RecordID = recordID
	return r
}

// ErrorHandler collects error records and decides how processing should
// react to each. Per-record problems are absorbed locally; only
// configuration-level problems stop a run.
type ErrorHandler struct {
	mu      sync.Mutex
	logger  *zap.Logger
	records []ErrorRecord
	counts  map[ErrorCategory]int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.Named("error-handler"),
		counts: make(map[ErrorCategory]int),
	}
}

// RecordError stores an error record and updates category counts
func (h *ErrorHandler) RecordError(record ErrorRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, record)
	h.counts[record.Category]++

	h.logger.Debug("Recorded pipeline error",
		zap.String("category", record.Category.String()),
		zap.String("source", record.Source),
		zap.String("subject", record.SubjectID),
		zap.String("message", record.Message))
}

// HandleError records the error and returns the recommended action
func (h *ErrorHandler) HandleError(record ErrorRecord) Action {
	h.RecordError(record)

	switch record.Category {
	case ErrorCategoryValidationSkip, ErrorCategoryRecordLevel:
		return ActionSkipRecord
	case ErrorCategoryDegenerateInput, ErrorCategoryReidentificationMiss:
		return ActionContinue
	case ErrorCategorySubjectLevel:
		return ActionSkipSubject
	case ErrorCategoryConfiguration, ErrorCategoryCritical:
		return ActionAbort
	default:
		return ActionContinue
	}
}

// Counts returns a copy of the per-category error counts
func (h *ErrorHandler) Counts() map[ErrorCategory]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts := make(map[ErrorCategory]int, len(h.counts))
	for category, count := range h.counts {
		counts[category] = count
	}
	return counts
}

// Records returns a copy of the collected error records
func (h *ErrorHandler) Records() []ErrorRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := make([]ErrorRecord, len(h.records))
	copy(records, h.records)
	return records
}
