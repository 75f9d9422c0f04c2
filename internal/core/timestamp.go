package core

import (
	"bytes"
	"fmt"
	"time"
)

// TimestampLayout is the zone-less local date-time the expense API speaks.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout is the calendar-day form used by forms and query strings.
const DateLayout = "2006-01-02"

var timestampInputLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	DateLayout,
}

// Timestamp wraps time.Time with the API's JSON representation.
// Values are kept in UTC; the wall clock is what matters, not the instant.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// NewDate returns midnight of the given calendar day.
func NewDate(year int, month time.Month, day int) Timestamp {
	return Timestamp{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseTimestamp accepts the API layout, fractional seconds, RFC 3339 and a bare day.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParseDate parses a yyyy-mm-dd calendar day.
func ParseDate(s string) (Timestamp, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid date %q", s)
	}
	return Timestamp{Time: t}, nil
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// DateString returns the calendar day part.
func (t Timestamp) DateString() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// StartOfDay and EndOfDay bound the calendar day containing t.
func (t Timestamp) StartOfDay() Timestamp {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (t Timestamp) EndOfDay() Timestamp {
	return Timestamp{Time: time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(TimestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("timestamp must be a JSON string, got %s", b)
	}
	parsed, err := ParseTimestamp(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
