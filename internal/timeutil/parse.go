package timeutil

import "time"

// Fallback layouts for vendor timestamps that carry no offset. All are
// interpreted as UTC. Go accepts a fractional-seconds field during parsing
// even when the layout omits it, so these also cover ".%f" variants.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp converts a vendor timestamp string to an instant.
// It tries RFC 3339 first (a trailing "Z" or an explicit offset), then the
// fixed fallback layouts assumed UTC. The second return is false when no
// attempt succeeds; callers log that, it is never an error. Parsing is
// deterministic and idempotent.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
