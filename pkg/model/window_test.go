package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestWindow_DayCounts(t *testing.T) {
	w := NewWindow(day(1), day(7))

	assert.Equal(t, 6, w.ElapsedDays())
	assert.Equal(t, 7, w.CalendarDays())
	assert.Equal(t, 1.0, w.CalendarWeeks())
}

func TestWindow_WeeksFlooredAtOne(t *testing.T) {
	w := NewWindow(day(1), day(3))

	assert.Equal(t, 1.0, w.ElapsedWeeks())
	assert.Equal(t, 1.0, w.CalendarWeeks())
}

func TestWindow_MultiWeek(t *testing.T) {
	w := NewWindow(day(1), day(15))

	assert.Equal(t, 2.0, w.ElapsedWeeks())
}

func TestFilterWindow_HalfOpen(t *testing.T) {
	w := NewWindow(day(2), day(4))

	logs := []WorkLog{
		{Started: day(1)},
		{Started: day(2)}, // inclusive start
		{Started: day(3)},
		{Started: day(4)}, // exclusive end
	}

	scoped := FilterWindow(logs, w)
	assert.Len(t, scoped, 2)
	assert.Equal(t, day(2), scoped[0].Started)
	assert.Equal(t, day(3), scoped[1].Started)
}

func TestTask_Completed(t *testing.T) {
	resolved := day(5)

	assert.True(t, Task{Resolved: &resolved}.Completed())
	assert.True(t, Task{Status: "Done"}.Completed())
	assert.True(t, Task{Status: "Closed"}.Completed())
	assert.False(t, Task{Status: "In Progress"}.Completed())
}

func TestMeeting_Duration(t *testing.T) {
	m := Meeting{Start: day(1), End: day(1).Add(90 * time.Minute)}
	assert.Equal(t, 90*time.Minute, m.Duration())
}
