package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulsemetrics/feature-ingress/pkg/anonymizer"
	"github.com/pulsemetrics/feature-ingress/pkg/config"
	"github.com/pulsemetrics/feature-ingress/pkg/features"
	"github.com/pulsemetrics/feature-ingress/pkg/model"
	"github.com/pulsemetrics/feature-ingress/pkg/preprocessor"
)

func testConfig() *config.Config {
	return &config.Config{
		PrivacyKey:      "test-key",
		WorkHoursStart:  8,
		WorkHoursEnd:    18,
		OverdueTaskDays: 30,
		Weights: config.PerformanceWeights{
			TaskCompletion:       0.5,
			CommunicationBalance: 0.25,
			WorkHours:            0.25,
		},
		WorkerPoolSize: 2,
	}
}

func newTestManager(t *testing.T) (*Manager, *anonymizer.MemoryStore) {
	t.Helper()

	store := anonymizer.NewMemoryStore()
	manager, err := NewWithStore(testConfig(), store, zap.NewNop())
	require.NoError(t, err)
	return manager, store
}

// testJob builds a job from realistic raw events: two usable meetings and
// one dropped for a missing end, a subject-authored message, one mail, a
// completed task, and two full work days.
func testJob(windowEnd time.Time) SubjectJob {
	start := windowEnd.AddDate(0, 0, -7)
	window := model.NewWindow(start, windowEnd)

	day1 := start.Add(34 * time.Hour) // 10:00 on the second window day
	day2 := start.Add(58 * time.Hour)

	raw := preprocessor.RawBatch{
		Meetings: []model.RawEvent{
			{
				"id":    "evt-1",
				"start": map[string]interface{}{"dateTime": day1.Format(time.RFC3339)},
				"end":   map[string]interface{}{"dateTime": day1.Add(time.Hour).Format(time.RFC3339)},
			},
			{
				"id":    "evt-2",
				"start": map[string]interface{}{"dateTime": day2.Format(time.RFC3339)},
				"end":   map[string]interface{}{"dateTime": day2.Add(30 * time.Minute).Format(time.RFC3339)},
			},
			{
				"id":    "evt-3",
				"start": map[string]interface{}{"dateTime": day2.Format(time.RFC3339)},
			},
		},
		Messages: []model.RawEvent{
			{
				"ts":   fmt.Sprintf("%d.000000", day1.Unix()),
				"user": "U123",
				"text": "is the deploy done?",
			},
		},
		Mail: []model.RawEvent{
			{"receivedDateTime": day1.Format(time.RFC3339)},
		},
		Tasks: []model.RawEvent{
			{
				"key":      "PROJ-1",
				"created":  day1.Format(time.RFC3339),
				"resolved": day2.Format(time.RFC3339),
				"status":   "Done",
				"assignee": "acct-1",
			},
		},
		WorkLogs: []model.RawEvent{
			{"started": day1.Format(time.RFC3339), "time_spent_seconds": float64(28800)},
			{"started": day2.Format(time.RFC3339), "time_spent_seconds": float64(28800)},
		},
	}

	// The subject's message author token under the test privacy key
	anon, _ := anonymizer.New("test-key", anonymizer.NewMemoryStore(), zap.NewNop())
	subject := features.Subject{
		Token:     anon.HashIdentifier("U123"),
		AccountID: "acct-1",
	}

	return NewSubjectJob(subject, window, raw)
}

func TestNewWithStore_InvalidKey(t *testing.T) {
	cfg := testConfig()
	cfg.PrivacyKey = ""

	_, err := NewWithStore(cfg, anonymizer.NewMemoryStore(), zap.NewNop())
	require.Error(t, err)
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(context.Background(), nil, zap.NewNop())
	require.Error(t, err)

	cfg := testConfig()
	cfg.Weights.TaskCompletion = 0.9
	_, err = New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestProcessSubject_EndToEnd(t *testing.T) {
	manager, store := newTestManager(t)
	job := testJob(time.Now().UTC().Truncate(24 * time.Hour))

	result := manager.ProcessSubject(context.Background(), job)

	assert.True(t, result.Success)
	assert.Equal(t, job.ID, result.JobID)
	assert.Equal(t, "acct-1", result.SubjectID)

	// The dropped meeting is audit data, not a failure
	assert.Equal(t, 1, result.SkippedRecords())

	require.Len(t, result.Features, len(features.SchemaNames))
	assert.Greater(t, result.Features[features.FeatureMeetingHoursPerWeek], 0.0)
	assert.Greater(t, result.Features[features.FeatureMessagesSentPerDay], 0.0)
	assert.Equal(t, 1.0, result.Features[features.FeatureTaskCompletionRate])
	assert.Greater(t, result.Features[features.FeatureLoggedHoursPerWeek], 0.0)

	// Message content was captured for the trusted stage
	assert.Equal(t, 1, store.Len())
}

func TestProcessSubject_ContentRoundTrip(t *testing.T) {
	manager, _ := newTestManager(t)
	job := testJob(time.Now().UTC().Truncate(24 * time.Hour))

	result := manager.ProcessSubject(context.Background(), job)
	require.Len(t, result.Canonical.Messages, 1)

	msg := result.Canonical.Messages[0]
	assert.Equal(t, anonymizer.Placeholder, msg.Content.Placeholder)
	require.NotEmpty(t, msg.Content.Handle)

	reader, err := anonymizer.NewTrustedReader(manager.ContentStore(), zap.NewNop())
	require.NoError(t, err)

	original, err := reader.Resolve(context.Background(), msg.Content.Handle)
	require.NoError(t, err)
	assert.Equal(t, "is the deploy done?", original)
}

func TestPurgeContent(t *testing.T) {
	manager, store := newTestManager(t)
	job := testJob(time.Now().UTC().Truncate(24 * time.Hour))

	result := manager.ProcessSubject(context.Background(), job)
	require.Equal(t, 1, store.Len())

	require.NoError(t, manager.PurgeContent(context.Background()))
	assert.Equal(t, 0, store.Len())

	reader, err := anonymizer.NewTrustedReader(store, zap.NewNop())
	require.NoError(t, err)
	_, err = reader.Resolve(context.Background(), result.Canonical.Messages[0].Content.Handle)
	assert.ErrorIs(t, err, anonymizer.ErrNotFound)
}

func TestRun_MultipleJobs(t *testing.T) {
	manager, _ := newTestManager(t)
	windowEnd := time.Now().UTC().Truncate(24 * time.Hour)

	jobs := []SubjectJob{
		testJob(windowEnd),
		testJob(windowEnd),
		testJob(windowEnd),
	}

	results, err := manager.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, result := range results {
		assert.True(t, result.Success)
		assert.Len(t, result.Features, len(features.SchemaNames))
	}

	assert.Equal(t, 3, manager.Metrics().SubjectsProcessed)
	assert.Equal(t, 0, manager.Metrics().SubjectsFailed)
}

func TestRun_NoJobs(t *testing.T) {
	manager, _ := newTestManager(t)

	results, err := manager.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestRun_ContextCancelled(t *testing.T) {
	manager, _ := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := manager.Run(ctx, []SubjectJob{testJob(time.Now().UTC())})
	assert.Error(t, err)
}
