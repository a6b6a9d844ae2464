// pkg/preprocessor/fields.go
package preprocessor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pulsemetrics/feature-ingress/pkg/model"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// stringField returns the field as a string, "" when absent or non-string.
func stringField(raw model.RawEvent, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// stringFieldOr returns the field as a string with a fallback default.
func stringFieldOr(raw model.RawEvent, key, defaultValue string) string {
	if s := stringField(raw, key); s != "" {
		return s
	}
	return defaultValue
}

// boolField returns the field as a bool, false when absent or mistyped.
func boolField(raw model.RawEvent, key string) bool {
	value, ok := raw[key].(bool)
	return ok && value
}

// floatField returns the field as a float64, handling the JSON number
// representations providers actually send.
func floatField(raw model.RawEvent, key string) (float64, bool) {
	value, ok := raw[key]
	if !ok || value == nil {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// mapField returns the field as a nested record, nil when absent.
func mapField(raw model.RawEvent, key string) model.RawEvent {
	switch v := raw[key].(type) {
	case map[string]interface{}:
		return model.RawEvent(v)
	case model.RawEvent:
		return v
	default:
		return nil
	}
}

// sliceField returns the field as a slice, nil when absent.
func sliceField(raw model.RawEvent, key string) []interface{} {
	value, ok := raw[key].([]interface{})
	if !ok {
		return nil
	}
	return value
}

// parseISOTime parses an ISO-8601 / RFC 3339 timestamp, accepting the
// fraction-less and offset-less variants providers emit.
func parseISOTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.9999999",
		"2006-01-02T15:04:05",
	}

	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", value)
}

// parseEpochTime parses a Unix-epoch timestamp, accepting the fractional
// string form chat providers use (e.g. "1355517523.000005").
func parseEpochTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case float64:
		return epochToTime(v), nil
	case int64:
		return epochToTime(float64(v)), nil
	case int:
		return epochToTime(float64(v)), nil
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch timestamp %q: %w", v, err)
		}
		return epochToTime(parsed), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported epoch timestamp type %T", value)
	}
}

func epochToTime(seconds float64) time.Time {
	secs := int64(seconds)
	nanos := int64((seconds - float64(secs)) * float64(time.Second))
	return time.Unix(secs, nanos).UTC()
}

// stripHTML removes markup tags from rich message bodies.
func stripHTML(content string) string {
	return htmlTagPattern.ReplaceAllString(content, "")
}
