package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// TimeOfDay is a wall-clock time with minute granularity. It crosses every
// boundary (JSON, SQL) as an HH:mm string.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an HH:mm token. The encoding is fixed-width: exactly
// two digits, a colon, two digits. Single-digit hours are rejected.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	if len(raw) != 5 || raw[2] != ':' ||
		!isDigit(raw[0]) || !isDigit(raw[1]) || !isDigit(raw[3]) || !isDigit(raw[4]) {
		return TimeOfDay{}, appErrors.Clone(appErrors.ErrInvalidTimeFormat, "invalid time: "+raw)
	}
	hour := int(raw[0]-'0')*10 + int(raw[1]-'0')
	minute := int(raw[3]-'0')*10 + int(raw[4]-'0')
	if hour > 23 || minute > 59 {
		return TimeOfDay{}, appErrors.Clone(appErrors.ErrInvalidTimeFormat, "invalid time: "+raw)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Minutes returns minutes elapsed since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// String renders the HH:mm encoding.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalJSON encodes the time as an HH:mm string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an HH:mm string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status, "time must be a string")
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer, storing the HH:mm encoding.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner for text columns.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

// TimeInterval is a half-open time span on a single day.
type TimeInterval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// NewTimeInterval builds an interval, rejecting zero-length and inverted spans.
func NewTimeInterval(start, end TimeOfDay) (TimeInterval, error) {
	if !start.Before(end) {
		return TimeInterval{}, appErrors.Clone(appErrors.ErrInvalidInterval, fmt.Sprintf("interval start %s must precede end %s", start, end))
	}
	return TimeInterval{Start: start, End: end}, nil
}

// ParseTimeInterval parses both HH:mm bounds and validates ordering.
func ParseTimeInterval(startRaw, endRaw string) (TimeInterval, error) {
	start, err := ParseTimeOfDay(startRaw)
	if err != nil {
		return TimeInterval{}, err
	}
	end, err := ParseTimeOfDay(endRaw)
	if err != nil {
		return TimeInterval{}, err
	}
	return NewTimeInterval(start, end)
}

// Overlaps reports whether two half-open intervals intersect. Back-to-back
// intervals sharing only a boundary instant do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Minutes() < other.End.Minutes() && other.Start.Minutes() < i.End.Minutes()
}

// String renders the interval as "HH:mm-HH:mm".
func (i TimeInterval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
