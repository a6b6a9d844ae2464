// pkg/model/window.go
package model

import "time"

// Window is the (start, end) time range a feature vector is scoped to.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow creates a window over the given range.
func NewWindow(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// ElapsedDays returns the number of whole days between start and end.
func (w Window) ElapsedDays() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// CalendarDays returns the inclusive day count of the window, so a window
// from Monday to the following Sunday covers seven days.
func (w Window) CalendarDays() int {
	return w.ElapsedDays() + 1
}

// ElapsedWeeks returns the window length in weeks, floored at one so that
// sub-week windows never inflate per-week rates.
func (w Window) ElapsedWeeks() float64 {
	weeks := float64(w.ElapsedDays()) / 7
	if weeks < 1 {
		return 1
	}
	return weeks
}

// CalendarWeeks is ElapsedWeeks over the inclusive day count.
func (w Window) CalendarWeeks() float64 {
	weeks := float64(w.CalendarDays()) / 7
	if weeks < 1 {
		return 1
	}
	return weeks
}
