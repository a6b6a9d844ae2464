// pkg/features/schema.go
package features

// SchemaVersion identifies the feature schema produced by this package.
// Consumers must treat names they do not know as absent, so the schema can
// grow additively without breaking them.
const SchemaVersion = "v1"

// Communication feature names.
const (
	FeatureMeetingHoursPerWeek     = "meeting_hours_per_week"
	FeatureMeetingCountsPerWeek    = "meeting_counts_per_week"
	FeatureMessagesSentPerDay      = "messages_sent_per_day"
	FeatureMessagesReceivedPerDay  = "messages_received_per_day"
	FeatureAvgResponseLatencyMin   = "avg_response_latency_min"
	FeatureCommunicationBurstiness = "communication_burstiness"
	FeatureAfterHoursMessageRatio  = "after_hours_message_ratio"
	FeatureCommunicationBalance    = "communication_balance"
	FeatureConversationLengthAvg   = "conversation_length_avg"
)

// Task management feature names.
const (
	FeatureTasksAssignedPerWeek  = "avg_tasks_assigned_per_week"
	FeatureTasksCompletedPerWeek = "avg_tasks_completed_per_week"
	FeatureTaskCompletionRate    = "task_completion_rate"
	FeatureAvgTaskAgeDays        = "avg_task_age_days"
	FeatureOverdueTaskRatio      = "overdue_task_ratio"
	FeatureTaskCommentSentiment  = "task_comment_sentiment_mean"
)

// Work hours feature names.
const (
	FeatureLoggedHoursPerWeek    = "logged_hours_per_week"
	FeatureWorkHoursVariance     = "variance_in_work_hours"
	FeatureLateStartsPerMonth    = "late_start_count_per_month"
	FeatureEarlyExitsPerMonth    = "early_exit_count_per_month"
	FeatureAvgBreakLengthMinutes = "avg_break_length_minutes"
)

// Performance feature names.
const (
	FeaturePerformanceScore = "performance_score"

	// FeatureBurnoutRiskScore is emitted as 0 and populated by the
	// downstream wellbeing model.
	FeatureBurnoutRiskScore = "burnout_risk_score"
)

// Intermediate meeting metrics that feed the group computations but are not
// part of the published schema.
const (
	FeatureAfterHoursMeetingRatio = "after_hours_meeting_ratio"
	FeatureFocusTimeHoursPerWeek  = "focus_time_hours_per_week"
)

// SchemaNames is the fixed, versioned list of published feature names.
var SchemaNames = []string{
	// Communication (9)
	FeatureMeetingHoursPerWeek,
	FeatureMeetingCountsPerWeek,
	FeatureMessagesSentPerDay,
	FeatureMessagesReceivedPerDay,
	FeatureAvgResponseLatencyMin,
	FeatureCommunicationBurstiness,
	FeatureAfterHoursMessageRatio,
	FeatureCommunicationBalance,
	FeatureConversationLengthAvg,

	// Task management (6)
	FeatureTasksAssignedPerWeek,
	FeatureTasksCompletedPerWeek,
	FeatureTaskCompletionRate,
	FeatureAvgTaskAgeDays,
	FeatureOverdueTaskRatio,
	FeatureTaskCommentSentiment,

	// Work hours (5)
	FeatureLoggedHoursPerWeek,
	FeatureWorkHoursVariance,
	FeatureLateStartsPerMonth,
	FeatureEarlyExitsPerMonth,
	FeatureAvgBreakLengthMinutes,

	// Performance (2)
	FeaturePerformanceScore,
	FeatureBurnoutRiskScore,
}

var schemaSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(SchemaNames))
	for _, name := range SchemaNames {
		set[name] = struct{}{}
	}
	return set
}()

// InSchema reports whether a feature name belongs to the published schema.
func InSchema(name string) bool {
	_, ok := schemaSet[name]
	return ok
}
