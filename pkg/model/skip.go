// pkg/model/skip.go
package model

import "time"

// SkipRecord documents a single raw event excluded during normalization.
// Skips are audit data, not errors: a batch with skips is still a success.
type SkipRecord struct {
	Source    string    // Source category (e.g. "meetings", "messages")
	RecordID  string    // Identifier of the raw event, when one exists
	Field     string    // Field that failed validation, if applicable
	Reason    string    // Why the record was skipped (e.g. "missing_start")
	SkippedAt time.Time // When the skip occurred
}

// BatchStats summarizes one normalization pass over a source.
type BatchStats struct {
	Source    string       // Source category
	Input     int          // Raw events received
	Processed int          // Canonical records produced
	Skipped   int          // Records excluded
	Skips     []SkipRecord // Per-record skip audit
}

// AddSkip records a skipped raw event.
func (b *BatchStats) AddSkip(recordID, field, reason string) {
	b.Skipped++
	b.Skips = append(b.Skips, SkipRecord{
		Source:    b.Source,
		RecordID:  recordID,
		Field:     field,
		Reason:    reason,
		SkippedAt: time.Now(),
	})
}
