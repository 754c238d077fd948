package paprika

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// timeFormat is the wire format Paprika uses for every timestamp field.
// All values are UTC without an explicit offset.
const timeFormat = "2006-01-02 15:04:05"

// Time wraps time.Time with Paprika's JSON wire format. Values always
// normalize to UTC so that an entity fingerprints identically before and
// after a database round trip.
type Time struct {
	time.Time
}

// NewTime builds a Time truncated to seconds, matching the wire precision.
func NewTime(t time.Time) Time {
	return Time{t.UTC().Truncate(time.Second)}
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Time.UTC().Format(timeFormat) + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(timeFormat, s, time.UTC)
	if err != nil {
		return fmt.Errorf("parse paprika time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// Scan implements sql.Scanner so Time works as a pgx scan target.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC().Truncate(time.Second)
		return nil
	case string:
		return t.UnmarshalJSON([]byte(`"` + v + `"`))
	default:
		return fmt.Errorf("cannot scan %T into paprika.Time", src)
	}
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	return t.Time.UTC(), nil
}
