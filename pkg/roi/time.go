package roi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layouts the API is known to use for timestamps. Zoneless layouts come last.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an API timestamp. The second result reports whether
// the text carried a zone offset; zoneless values are returned in UTC.
func ParseTimestamp(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)

	for i, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, i < 2, nil
		}
	}

	return time.Time{}, false, fmt.Errorf("unrecognized timestamp %q", value)
}

// SystemTime is the response of the time endpoint.
//
// System is the API's wall clock in its own time zone. When the API omits the
// offset, it is recovered from the difference to the UTC clock.
type SystemTime struct {
	UTC    time.Time `json:"utc_datetime"        yaml:"utc_datetime"`
	System time.Time `json:"roi_system_datetime" yaml:"roi_system_datetime"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SystemTime) UnmarshalJSON(data []byte) error {
	var wire struct {
		UTC    string `json:"utc_datetime"`
		System string `json:"roi_system_datetime"`
	}

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return err
	}

	utc, _, err := ParseTimestamp(wire.UTC)
	if err != nil {
		return fmt.Errorf("parsing utc_datetime: %w", err)
	}

	system, zoned, err := ParseTimestamp(wire.System)
	if err != nil {
		return fmt.Errorf("parsing roi_system_datetime: %w", err)
	}

	if !zoned {
		offset := system.Sub(utc).Round(15 * time.Minute)
		zone := time.FixedZone("ROI", int(offset.Seconds()))
		system = time.Date(system.Year(), system.Month(), system.Day(),
			system.Hour(), system.Minute(), system.Second(), system.Nanosecond(), zone)
	}

	s.UTC = utc.UTC()
	s.System = system

	return nil
}

// NextDayStart returns midnight at the start of the day after System, in the
// API's own time zone.
func (s SystemTime) NextDayStart() time.Time {
	t := s.System

	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
