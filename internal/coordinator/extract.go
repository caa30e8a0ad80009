package coordinator

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// stringAlias returns the first present, non-empty value among the given
// keys, stringified. Empty strings, zero numbers and nil all fall through
// to the next alias.
func stringAlias(m map[string]any, keys ...string) string {
	for _, key := range keys {
		s := stringify(m[key])
		if s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == 0 {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		if val == 0 {
			return ""
		}
		return strconv.Itoa(val)
	case bool:
		if !val {
			return ""
		}
		return "true"
	default:
		return fmt.Sprint(val)
	}
}

// numberAlias extracts the first present numeric value among the given
// keys. Strings are parsed; anything unparseable yields ok=false so the
// caller can treat the record as not a completed sale.
func numberAlias(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, present := m[key]
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			if val == 0 {
				continue
			}
			return val, true
		case int:
			if val == 0 {
				continue
			}
			return float64(val), true
		case json.Number:
			f, err := val.Float64()
			if err != nil {
				return 0, false
			}
			if f == 0 {
				continue
			}
			return f, true
		case string:
			if val == "" {
				continue
			}
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return 0, false
			}
			return f, true
		default:
			return 0, false
		}
	}
	return 0, false
}
