package config

import (
	"strconv"
	"time"
)

// Values wraps a decoded YAML or JSON document for tolerant extraction.
// Accessors return the default when a key is missing or has the wrong type,
// so a partial file only overrides what it names.
type Values struct {
	data map[string]any
}

// NewValues creates Values from a decoded document. A nil map is empty.
func NewValues(data map[string]any) Values {
	if data == nil {
		data = make(map[string]any)
	}
	return Values{data: data}
}

// Section returns the nested mapping under key, or empty Values.
func (v Values) Section(key string) Values {
	switch m := v.data[key].(type) {
	case map[string]any:
		return NewValues(m)
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return NewValues(out)
	}
	return NewValues(nil)
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}

// String returns the string under key, or def.
func (v Values) String(key, def string) string {
	if s, ok := v.data[key].(string); ok {
		return s
	}
	return def
}

// Duration returns the duration under key, or def.
//
// Strings are parsed with time.ParseDuration; bare numbers are seconds.
func (v Values) Duration(key string, def time.Duration) time.Duration {
	switch val := v.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	}
	return def
}

// Bool returns the boolean under key, or def.
func (v Values) Bool(key string, def bool) bool {
	if b, ok := v.data[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the integer under key, or def. Floats are accepted only
// when they have no fractional part.
func (v Values) Int(key string, def int) int {
	switch val := v.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return def
}

// Strings returns the string list under key, or def. Whole numbers in
// the list are rendered in decimal, so job ids may be written unquoted.
func (v Values) Strings(key string, def []string) []string {
	switch val := v.data[key].(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case int:
				out = append(out, strconv.Itoa(s))
			case float64:
				if s != float64(int(s)) {
					return def
				}
				out = append(out, strconv.Itoa(int(s)))
			default:
				return def
			}
		}
		return out
	}
	return def
}
