package normalize

import (
	"strings"
	"time"
)

// Accepted timestamp layouts, tried in order. Exports from the PLC
// historian use RFC3339; older exports use bare date-time text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
	"2006-01-02",
}

// parseTimestamp converts a raw field into an instant. Numeric values
// are Unix epoch seconds, or milliseconds when too large to be a
// plausible seconds value. ok is false when nothing fits.
func parseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return time.Time{}, false
		}
		if t >= 1e12 {
			return time.UnixMilli(int64(t)).UTC(), true
		}
		return time.Unix(int64(t), 0).UTC(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
