// pkg/features/extractor.go
package features

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pulsemetrics/feature-ingress/pkg/config"
	"github.com/pulsemetrics/feature-ingress/pkg/model"
)

// Subject identifies the person a feature vector is computed for: the keyed
// token their message authorship hashes to, and the opaque account
// reference the issue tracker knows them by.
type Subject struct {
	Token     string
	AccountID string
}

// Extractor computes the fixed feature schema for one subject over one time
// window. It is a pure function of its inputs aside from the stable
// configuration it holds; callers supply records already scoped to the
// subject and window.
type Extractor struct {
	cfg *config.Config
	now func() time.Time
}

// New creates an Extractor.
func New(cfg *config.Config) (*Extractor, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}

	return &Extractor{
		cfg: cfg,
		now: time.Now,
	}, nil
}

// WithClock overrides the time source used for task-age computation.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// MeetingFeatures computes the meeting-load metrics. Empty input yields the
// documented defaults: zero load and the full 40-hour focus budget.
func (e *Extractor) MeetingFeatures(meetings []model.Meeting, w model.Window) model.FeatureVector {
	if len(meetings) == 0 {
		return model.FeatureVector{
			FeatureMeetingHoursPerWeek:    0.0,
			FeatureMeetingCountsPerWeek:   0.0,
			FeatureAfterHoursMeetingRatio: 0.0,
			FeatureFocusTimeHoursPerWeek:  40.0,
		}
	}

	var totalHours, afterHours float64
	for _, meeting := range meetings {
		duration := meeting.Duration().Hours()
		totalHours += duration

		if e.isAfterHours(meeting.Start) {
			afterHours += duration
		}
	}

	weeks := w.CalendarWeeks()
	hoursPerWeek := totalHours / weeks

	afterHoursRatio := 0.0
	if totalHours > 0 {
		afterHoursRatio = afterHours / totalHours
	}

	return model.FeatureVector{
		FeatureMeetingHoursPerWeek:    round(hoursPerWeek, 2),
		FeatureMeetingCountsPerWeek:   round(float64(len(meetings))/weeks, 1),
		FeatureAfterHoursMeetingRatio: round(afterHoursRatio, 3),
		FeatureFocusTimeHoursPerWeek:  round(math.Max(0, 40-hoursPerWeek), 2),
	}
}

// CommunicationFeatures computes messaging metrics. Sent versus received is
// decided by comparing each message's author token to the subject's token.
func (e *Extractor) CommunicationFeatures(messages []model.Message, subjectToken string, w model.Window) model.FeatureVector {
	if len(messages) == 0 {
		return model.FeatureVector{
			FeatureMessagesSentPerDay:      0.0,
			FeatureMessagesReceivedPerDay:  0.0,
			FeatureAvgResponseLatencyMin:   0.0,
			FeatureCommunicationBurstiness: 0.0,
			FeatureAfterHoursMessageRatio:  0.0,
			FeatureCommunicationBalance:    1.0,
			FeatureConversationLengthAvg:   0.0,
		}
	}

	ordered := make([]model.Message, len(messages))
	copy(ordered, messages)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var sent, received, afterHours, replies int
	for _, msg := range ordered {
		if msg.AuthorToken == subjectToken {
			sent++
		} else {
			received++
		}

		if e.isAfterHours(msg.Timestamp) {
			afterHours++
		}

		if msg.IsReply {
			replies++
		}
	}

	days := float64(w.ElapsedDays())
	if days < 1 {
		days = 1
	}

	// Sent/received ratio, 0 when nothing was received
	balance := 0.0
	if received > 0 {
		balance = float64(sent) / float64(received)
	}

	total := sent + received
	afterHoursRatio := float64(afterHours) / float64(total)

	return model.FeatureVector{
		FeatureMessagesSentPerDay:      round(float64(sent)/days, 1),
		FeatureMessagesReceivedPerDay:  round(float64(received)/days, 1),
		FeatureAvgResponseLatencyMin:   round(replyLatencyMinutes(ordered), 1),
		FeatureCommunicationBurstiness: round(burstiness(ordered), 2),
		FeatureAfterHoursMessageRatio:  round(afterHoursRatio, 3),
		FeatureCommunicationBalance:    round(balance, 2),
		FeatureConversationLengthAvg:   float64(replies),
	}
}

// burstiness is the coefficient of variation (population stdev over mean)
// of inter-message intervals in minutes, clamped to [0, 1].
func burstiness(ordered []model.Message) float64 {
	if len(ordered) < 3 {
		return 0.0
	}

	intervals := make([]float64, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		gap := ordered[i].Timestamp.Sub(ordered[i-1].Timestamp).Minutes()
		intervals = append(intervals, gap)
	}

	mean := stat.Mean(intervals, nil)
	if mean <= 0 {
		return 0.0
	}

	cv := stat.PopStdDev(intervals, nil) / mean
	return math.Min(cv, 1.0)
}

// replyLatencyMinutes is the mean gap between each reply-flagged message
// and the message preceding it in time order, 0 when no replies exist.
func replyLatencyMinutes(ordered []model.Message) float64 {
	var gaps []float64
	for i := 1; i < len(ordered); i++ {
		if !ordered[i].IsReply {
			continue
		}
		gaps = append(gaps, ordered[i].Timestamp.Sub(ordered[i-1].Timestamp).Minutes())
	}

	if len(gaps) == 0 {
		return 0.0
	}
	return stat.Mean(gaps, nil)
}

// TaskFeatures computes task-management metrics for the tasks assigned to
// the subject's account. Task age is measured against the current time, and
// a task is overdue once it exceeds the configured threshold unresolved.
func (e *Extractor) TaskFeatures(tasks []model.Task, accountID string, w model.Window) model.FeatureVector {
	if len(tasks) == 0 {
		return model.FeatureVector{
			FeatureTasksAssignedPerWeek:  0.0,
			FeatureTasksCompletedPerWeek: 0.0,
			FeatureTaskCompletionRate:    0.0,
			FeatureAvgTaskAgeDays:        0.0,
			FeatureOverdueTaskRatio:      0.0,
			FeatureTaskCommentSentiment:  0.0,
		}
	}

	now := e.now()

	var assigned, completed, overdue int
	var ages []float64
	for _, task := range tasks {
		if task.Assignee != accountID {
			continue
		}
		assigned++

		if task.Completed() {
			completed++
		}

		ageDays := now.Sub(task.Created).Hours() / 24
		ages = append(ages, ageDays)

		if ageDays > float64(e.cfg.OverdueTaskDays) && !task.Completed() {
			overdue++
		}
	}

	weeks := w.ElapsedWeeks()

	completionRate := 0.0
	overdueRatio := 0.0
	if assigned > 0 {
		completionRate = float64(completed) / float64(assigned)
		overdueRatio = float64(overdue) / float64(assigned)
	}

	avgAge := 0.0
	if len(ages) > 0 {
		avgAge = stat.Mean(ages, nil)
	}

	return model.FeatureVector{
		FeatureTasksAssignedPerWeek:  round(float64(assigned)/weeks, 1),
		FeatureTasksCompletedPerWeek: round(float64(completed)/weeks, 1),
		FeatureTaskCompletionRate:    round(completionRate, 2),
		FeatureAvgTaskAgeDays:        round(avgAge, 1),
		FeatureOverdueTaskRatio:      round(overdueRatio, 2),

		// Comment text never reaches this stage post-anonymization, so the
		// sentiment slot stays neutral rather than fabricated.
		FeatureTaskCommentSentiment: 0.0,
	}
}

// WorkLogFeatures computes work-hour metrics from time-tracking entries.
// Empty input yields the documented expected-hours defaults.
func (e *Extractor) WorkLogFeatures(logs []model.WorkLog, w model.Window) model.FeatureVector {
	if len(logs) == 0 {
		return model.FeatureVector{
			FeatureLoggedHoursPerWeek:    40.0,
			FeatureWorkHoursVariance:     1.0,
			FeatureLateStartsPerMonth:    0.0,
			FeatureEarlyExitsPerMonth:    0.0,
			FeatureAvgBreakLengthMinutes: 45.0,
		}
	}

	var totalSeconds int64
	for _, log := range logs {
		totalSeconds += log.Seconds
	}

	weeks := w.ElapsedWeeks()
	loggedPerWeek := float64(totalSeconds) / 3600 / weeks

	days := groupByDay(logs)

	lateStarts, earlyExits := e.attendanceCounts(days)
	monthScale := 30.0 / math.Max(float64(w.ElapsedDays()), 1)

	return model.FeatureVector{
		FeatureLoggedHoursPerWeek:    round(loggedPerWeek, 1),
		FeatureWorkHoursVariance:     round(dailyHoursVariance(days), 2),
		FeatureLateStartsPerMonth:    round(float64(lateStarts)*monthScale, 1),
		FeatureEarlyExitsPerMonth:    round(float64(earlyExits)*monthScale, 1),
		FeatureAvgBreakLengthMinutes: round(avgBreakMinutes(days), 1),
	}
}

// groupByDay buckets work logs by calendar date, each bucket sorted by
// start time.
func groupByDay(logs []model.WorkLog) map[string][]model.WorkLog {
	days := make(map[string][]model.WorkLog)
	for _, log := range logs {
		key := log.Started.Format("2006-01-02")
		days[key] = append(days[key], log)
	}

	for _, entries := range days {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Started.Before(entries[j].Started)
		})
	}

	return days
}

// dailyHoursVariance is the population variance of per-day aggregated
// logged hours, 0 when fewer than two days carry logs.
func dailyHoursVariance(days map[string][]model.WorkLog) float64 {
	if len(days) < 2 {
		return 0.0
	}

	hours := make([]float64, 0, len(days))
	for _, entries := range days {
		var daySeconds int64
		for _, log := range entries {
			daySeconds += log.Seconds
		}
		hours = append(hours, float64(daySeconds)/3600)
	}

	return stat.PopVariance(hours, nil)
}

// attendanceCounts counts the days whose first logged activity began well
// after the work-hours start (late start) and whose last activity ended
// well before the work-hours end (early exit).
func (e *Extractor) attendanceCounts(days map[string][]model.WorkLog) (lateStarts, earlyExits int) {
	for _, entries := range days {
		first := entries[0]
		last := entries[len(entries)-1]

		if first.Started.Hour() >= e.cfg.WorkHoursStart+1 {
			lateStarts++
		}
		if last.End().Hour() < e.cfg.WorkHoursEnd-1 {
			earlyExits++
		}
	}
	return lateStarts, earlyExits
}

// avgBreakMinutes is the mean gap between consecutive logged intervals
// within a day, 0 when no gaps were observed.
func avgBreakMinutes(days map[string][]model.WorkLog) float64 {
	var gaps []float64
	for _, entries := range days {
		for i := 1; i < len(entries); i++ {
			gap := entries[i].Started.Sub(entries[i-1].End()).Minutes()
			if gap > 0 {
				gaps = append(gaps, gap)
			}
		}
	}

	if len(gaps) == 0 {
		return 0.0
	}
	return stat.Mean(gaps, nil)
}

// PerformanceScore is the weighted composite of task completion, closeness
// of communication balance to 1.0, and closeness of logged hours to the
// 40-hour week, each clamped to [0, 1].
func (e *Extractor) PerformanceScore(completionRate, communicationBalance, loggedHoursPerWeek float64) float64 {
	commScore := 1.0 - math.Abs(1.0-math.Min(communicationBalance, 2.0))

	hoursScore := 1.0 - math.Abs(40-loggedHoursPerWeek)/40
	hoursScore = math.Max(0, math.Min(1, hoursScore))

	score := e.cfg.Weights.TaskCompletion*completionRate +
		e.cfg.Weights.CommunicationBalance*commScore +
		e.cfg.Weights.WorkHours*hoursScore

	return round(score, 2)
}

// ExtractAll computes every feature group and merges the results into the
// published 22-name vector. Intermediate meeting metrics feed the
// computation but are not emitted.
func (e *Extractor) ExtractAll(
	meetings []model.Meeting,
	messages []model.Message,
	tasks []model.Task,
	logs []model.WorkLog,
	subject Subject,
	w model.Window,
) model.FeatureVector {
	vector := model.FeatureVector{}

	merge := func(group model.FeatureVector) {
		for name, value := range group {
			vector[name] = value
		}
	}

	merge(e.MeetingFeatures(meetings, w))
	merge(e.CommunicationFeatures(messages, subject.Token, w))
	merge(e.TaskFeatures(tasks, subject.AccountID, w))
	merge(e.WorkLogFeatures(logs, w))

	vector[FeaturePerformanceScore] = e.PerformanceScore(
		vector[FeatureTaskCompletionRate],
		vector[FeatureCommunicationBalance],
		vector[FeatureLoggedHoursPerWeek],
	)
	vector[FeatureBurnoutRiskScore] = 0.0

	for name := range vector {
		if !InSchema(name) {
			delete(vector, name)
		}
	}

	return vector
}

func (e *Extractor) isAfterHours(ts time.Time) bool {
	hour := ts.Hour()
	return hour < e.cfg.WorkHoursStart || hour >= e.cfg.WorkHoursEnd
}

// round keeps the published values at a stable precision per feature.
func round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
