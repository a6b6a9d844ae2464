package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewErrorRecord(t *testing.T) {
	err := errors.New("boom")
	record := NewErrorRecord(err, ErrorCategoryRecordLevel).
		WithSource("meetings").
		WithSubject("acct-1").
		WithRecord("evt-9")

	assert.Equal(t, ErrorCategoryRecordLevel, record.Category)
	assert.Equal(t, "meetings", record.Source)
	assert.Equal(t, "acct-1", record.SubjectID)
	assert.Equal(t, "evt-9", record.RecordID)
	assert.Equal(t, "boom", record.Message)
	assert.False(t, record.Timestamp.IsZero())
}

func TestErrorRecord_Recoverable(t *testing.T) {
	assert.True(t, NewErrorRecord(nil, ErrorCategoryValidationSkip).Recoverable)
	assert.True(t, NewErrorRecord(nil, ErrorCategoryRecordLevel).Recoverable)
	assert.False(t, NewErrorRecord(nil, ErrorCategorySubjectLevel).Recoverable)
	assert.False(t, NewErrorRecord(nil, ErrorCategoryCritical).Recoverable)
}

func TestErrorHandler_Actions(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop())

	cases := []struct {
		category ErrorCategory
		action   Action
	}{
		{ErrorCategoryValidationSkip, ActionSkipRecord},
		{ErrorCategoryRecordLevel, ActionSkipRecord},
		{ErrorCategoryDegenerateInput, ActionContinue},
		{ErrorCategoryReidentificationMiss, ActionContinue},
		{ErrorCategorySubjectLevel, ActionSkipSubject},
		{ErrorCategoryConfiguration, ActionAbort},
		{ErrorCategoryCritical, ActionAbort},
	}

	for _, tc := range cases {
		action := handler.HandleError(NewErrorRecord(nil, tc.category))
		assert.Equal(t, tc.action, action, tc.category.String())
	}
}

func TestErrorHandler_Counts(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop())

	handler.RecordError(NewErrorRecord(nil, ErrorCategoryValidationSkip))
	handler.RecordError(NewErrorRecord(nil, ErrorCategoryValidationSkip))
	handler.RecordError(NewErrorRecord(nil, ErrorCategoryRecordLevel))

	counts := handler.Counts()
	assert.Equal(t, 2, counts[ErrorCategoryValidationSkip])
	assert.Equal(t, 1, counts[ErrorCategoryRecordLevel])

	records := handler.Records()
	require.Len(t, records, 3)
}

func TestErrorCategory_String(t *testing.T) {
	assert.Equal(t, "ValidationSkip", ErrorCategoryValidationSkip.String())
	assert.Equal(t, "Critical", ErrorCategoryCritical.String())
	assert.Equal(t, "Unknown(99)", ErrorCategory(99).String())
}
