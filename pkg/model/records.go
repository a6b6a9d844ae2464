// pkg/model/records.go
package model

import "time"

// RawEvent is a provider-shaped record as delivered by the upstream
// integration clients. There is no shared schema across providers; fields
// are looked up by provider-specific convention during preprocessing.
type RawEvent map[string]interface{}

// Timestamped is implemented by every canonical record shape.
type Timestamped interface {
	EventTime() time.Time
}

// Meeting is a normalized calendar event. Attendee identities are never
// retained, only the count.
type Meeting struct {
	ID            string    // Provider event identifier
	Subject       string    // Meeting subject line
	Start         time.Time // Meeting start instant
	End           time.Time // Meeting end instant
	AllDay        bool      // Whether the event spans the whole day
	Status        string    // Free/busy status (e.g. "busy")
	AttendeeCount int       // Number of attendees (identities dropped)
	Online        bool      // Derived from a textual match on the location
}

// EventTime returns the meeting start instant.
func (m Meeting) EventTime() time.Time { return m.Start }

// Duration returns the meeting length.
func (m Meeting) Duration() time.Duration { return m.End.Sub(m.Start) }

// Reaction is a message reaction preserved as name and count only.
type Reaction struct {
	Name  string
	Count int
}

// Message is a normalized chat or channel message. The author identity is
// reduced to a keyed token and the body to an AnonymizedContent.
type Message struct {
	Timestamp   time.Time         // Message creation instant
	AuthorToken string            // Keyed digest of the author identifier
	AuthorName  string            // Surrogate display name
	ChannelID   string            // Channel or chat identifier
	Importance  string            // Provider importance flag, if any
	IsReply     bool              // Whether the message is a thread reply
	Content     AnonymizedContent // Anonymized body
	Reactions   []Reaction        // Reactions carry no direct identity
}

// EventTime returns the message creation instant.
func (m Message) EventTime() time.Time { return m.Timestamp }

// MailMetadata is normalized mail header data. Body content is never
// accepted by the pipeline; only counts and flags survive.
type MailMetadata struct {
	ReceivedAt     time.Time // When the mail was received
	SentAt         time.Time // When the mail was sent
	Importance     string    // Provider importance flag
	Read           bool      // Whether the mail has been read
	HasAttachments bool      // Whether attachments are present
	Sender         string    // Pseudonymized sender address
	ToCount        int       // Number of direct recipients
	CcCount        int       // Number of CC recipients
}

// EventTime returns the received instant, falling back to the sent instant.
func (m MailMetadata) EventTime() time.Time {
	if !m.ReceivedAt.IsZero() {
		return m.ReceivedAt
	}
	return m.SentAt
}

// Task is a normalized issue-tracker record. Assignee and creator are
// opaque account references from the provider, not direct PII.
type Task struct {
	Key               string     // Issue key (e.g. "PROJ-42")
	Status            string     // Workflow status
	Priority          string     // Priority name
	Type              string     // Issue type
	Project           string     // Project key
	Created           time.Time  // Creation instant
	Updated           time.Time  // Last update instant
	Resolved          *time.Time // Resolution instant, nil if unresolved
	Assignee          string     // Opaque account reference
	Creator           string     // Opaque account reference
	TimeEstimateHours float64    // Original estimate, hours
	TimeSpentHours    float64    // Logged time, hours
}

// EventTime returns the task creation instant.
func (t Task) EventTime() time.Time { return t.Created }

// Completed reports whether the task reached a terminal status.
func (t Task) Completed() bool {
	if t.Resolved != nil {
		return true
	}
	switch t.Status {
	case "Done", "Resolved", "Closed", "completed":
		return true
	}
	return false
}

// WorkLog is a normalized time-tracking entry.
type WorkLog struct {
	Started time.Time // When the logged interval began
	Seconds int64     // Logged duration in seconds
}

// EventTime returns the work-log start instant.
func (w WorkLog) EventTime() time.Time { return w.Started }

// End returns the instant the logged interval finished.
func (w WorkLog) End() time.Time {
	return w.Started.Add(time.Duration(w.Seconds) * time.Second)
}

// FilterWindow returns the records whose event time falls inside the
// half-open interval [w.Start, w.End).
func FilterWindow[T Timestamped](records []T, w Window) []T {
	scoped := make([]T, 0, len(records))
	for _, r := range records {
		ts := r.EventTime()
		if ts.Before(w.Start) || !ts.Before(w.End) {
			continue
		}
		scoped = append(scoped, r)
	}
	return scoped
}
