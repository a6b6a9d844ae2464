// pkg/preprocessor/preprocessor.go
package preprocessor

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulsemetrics/feature-ingress/pkg/anonymizer"
	"github.com/pulsemetrics/feature-ingress/pkg/model"
)

// onlineMarkers are the location substrings that classify a meeting as
// online rather than physical. The match is intentionally weak: provider
// location fields are free text.
var onlineMarkers = []string{"teams", "zoom", "meet", "webex", "http"}

// Preprocessor maps provider-shaped raw events into canonical records,
// invoking the Anonymizer for every field that could carry identifying
// content. A record that fails validation is skipped and counted; the batch
// as a whole never fails.
type Preprocessor struct {
	anon   *anonymizer.Anonymizer
	logger *zap.Logger
}

// New creates a Preprocessor.
func New(anon *anonymizer.Anonymizer, logger *zap.Logger) (*Preprocessor, error) {
	if anon == nil {
		return nil, errors.New("anonymizer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Preprocessor{
		anon:   anon,
		logger: logger.Named("preprocessor"),
	}, nil
}

// RawBatch groups the per-source raw event sequences of one invocation.
type RawBatch struct {
	Meetings []model.RawEvent
	Messages []model.RawEvent
	Mail     []model.RawEvent
	Tasks    []model.RawEvent
	WorkLogs []model.RawEvent
}

// CanonicalBatch is the normalized output of one invocation.
type CanonicalBatch struct {
	Meetings []model.Meeting
	Messages []model.Message
	Mail     []model.MailMetadata
	Tasks    []model.Task
	WorkLogs []model.WorkLog
	Stats    []model.BatchStats
}

// All normalizes every source in one call.
func (p *Preprocessor) All(ctx context.Context, raw RawBatch) CanonicalBatch {
	var out CanonicalBatch
	var stats model.BatchStats

	out.Meetings, stats = p.Meetings(raw.Meetings)
	out.Stats = append(out.Stats, stats)

	out.Messages, stats = p.Messages(ctx, raw.Messages)
	out.Stats = append(out.Stats, stats)

	out.Mail, stats = p.Mail(raw.Mail)
	out.Stats = append(out.Stats, stats)

	out.Tasks, stats = p.Tasks(raw.Tasks)
	out.Stats = append(out.Stats, stats)

	out.WorkLogs, stats = p.WorkLogs(raw.WorkLogs)
	out.Stats = append(out.Stats, stats)

	return out
}

// Meetings normalizes calendar events. Records missing a start or end
// instant are dropped and counted, not errors.
func (p *Preprocessor) Meetings(raw []model.RawEvent) ([]model.Meeting, model.BatchStats) {
	stats := model.BatchStats{Source: "meetings", Input: len(raw)}
	meetings := make([]model.Meeting, 0, len(raw))

	for _, event := range raw {
		id := stringField(event, "id")

		start, err := nestedTime(event, "start")
		if err != nil {
			stats.AddSkip(id, "start", "missing_start")
			continue
		}

		end, err := nestedTime(event, "end")
		if err != nil {
			stats.AddSkip(id, "end", "missing_end")
			continue
		}

		meetings = append(meetings, model.Meeting{
			ID:            id,
			Subject:       stringFieldOr(event, "subject", "Untitled Meeting"),
			Start:         start,
			End:           end,
			AllDay:        boolField(event, "isAllDay"),
			Status:        stringFieldOr(event, "showAs", "busy"),
			AttendeeCount: len(sliceField(event, "attendees")),
			Online:        isOnlineLocation(stringField(event, "location")),
		})
		stats.Processed++
	}

	p.logBatch(stats)
	return meetings, stats
}

// Mail normalizes mail metadata. Only counts and flags survive; the sender
// address is pseudonymized and body content is never accepted as input.
func (p *Preprocessor) Mail(raw []model.RawEvent) ([]model.MailMetadata, model.BatchStats) {
	stats := model.BatchStats{Source: "mail", Input: len(raw)}
	mail := make([]model.MailMetadata, 0, len(raw))

	for _, event := range raw {
		receivedAt, receivedErr := parseISOTime(stringField(event, "receivedDateTime"))
		sentAt, sentErr := parseISOTime(stringField(event, "sentDateTime"))
		if receivedErr != nil && sentErr != nil {
			stats.AddSkip(stringField(event, "id"), "receivedDateTime", "missing_timestamp")
			continue
		}

		sender := ""
		if from := mapField(event, "from"); from != nil {
			if addr := mapField(from, "emailAddress"); addr != nil {
				sender = stringField(addr, "address")
			}
		}

		mail = append(mail, model.MailMetadata{
			ReceivedAt:     receivedAt,
			SentAt:         sentAt,
			Importance:     stringFieldOr(event, "importance", "normal"),
			Read:           boolField(event, "isRead"),
			HasAttachments: boolField(event, "hasAttachments"),
			Sender:         p.anon.AnonymizeEmail(sender),
			ToCount:        len(sliceField(event, "toRecipients")),
			CcCount:        len(sliceField(event, "ccRecipients")),
		})
		stats.Processed++
	}

	p.logBatch(stats)
	return mail, stats
}

// Tasks normalizes issue-tracker records, accepting either field convention
// for the creation instant. Assignee and creator identifiers are passed
// through as opaque account references; they originate as provider account
// IDs, not direct PII.
func (p *Preprocessor) Tasks(raw []model.RawEvent) ([]model.Task, model.BatchStats) {
	stats := model.BatchStats{Source: "tasks", Input: len(raw)}
	tasks := make([]model.Task, 0, len(raw))

	for _, event := range raw {
		key := stringField(event, "key")

		createdStr := stringField(event, "created")
		if createdStr == "" {
			createdStr = stringField(event, "created_at")
		}

		created, err := parseISOTime(createdStr)
		if err != nil {
			stats.AddSkip(key, "created", "missing_created")
			continue
		}

		task := model.Task{
			Key:      key,
			Status:   namedField(event, "status"),
			Priority: namedField(event, "priority"),
			Type:     namedField(event, "issue_type"),
			Project:  stringField(event, "project"),
			Created:  created,
			Assignee: stringField(event, "assignee"),
			Creator:  stringField(event, "creator"),
		}

		if updated, err := parseISOTime(stringField(event, "updated")); err == nil {
			task.Updated = updated
		}
		if resolved, err := parseISOTime(stringField(event, "resolved")); err == nil {
			task.Resolved = &resolved
		}
		if estimate, ok := floatField(event, "time_estimate"); ok {
			task.TimeEstimateHours = estimate / 3600
		}
		if spent, ok := floatField(event, "time_spent"); ok {
			task.TimeSpentHours = spent / 3600
		}

		tasks = append(tasks, task)
		stats.Processed++
	}

	p.logBatch(stats)
	return tasks, stats
}

// WorkLogs normalizes time-tracking entries, accepting both the snake_case
// and camelCase field conventions providers use for logged seconds.
func (p *Preprocessor) WorkLogs(raw []model.RawEvent) ([]model.WorkLog, model.BatchStats) {
	stats := model.BatchStats{Source: "worklogs", Input: len(raw)}
	logs := make([]model.WorkLog, 0, len(raw))

	for _, event := range raw {
		startedStr := stringField(event, "started")
		if startedStr == "" {
			startedStr = stringField(event, "created_at")
		}

		started, err := parseISOTime(startedStr)
		if err != nil {
			stats.AddSkip(stringField(event, "id"), "started", "missing_started")
			continue
		}

		seconds, ok := floatField(event, "time_spent_seconds")
		if !ok {
			seconds, _ = floatField(event, "timeSpentSeconds")
		}

		logs = append(logs, model.WorkLog{
			Started: started,
			Seconds: int64(seconds),
		})
		stats.Processed++
	}

	p.logBatch(stats)
	return logs, stats
}

// nestedTime extracts a timestamp that may be nested under a "dateTime" key
// (calendar convention) or present as a flat string.
func nestedTime(raw model.RawEvent, key string) (time.Time, error) {
	if nested := mapField(raw, key); nested != nil {
		return parseISOTime(stringField(nested, "dateTime"))
	}
	return parseISOTime(stringField(raw, key))
}

// namedField reads a value that providers send either as a plain string or
// as an object with a "name" key.
func namedField(raw model.RawEvent, key string) string {
	if nested := mapField(raw, key); nested != nil {
		return stringField(nested, "name")
	}
	return stringField(raw, key)
}

func isOnlineLocation(location string) bool {
	lowered := strings.ToLower(location)
	for _, marker := range onlineMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func (p *Preprocessor) logBatch(stats model.BatchStats) {
	p.logger.Info("Normalized batch",
		zap.String("source", stats.Source),
		zap.Int("input", stats.Input),
		zap.Int("processed", stats.Processed),
		zap.Int("skipped", stats.Skipped))
}
