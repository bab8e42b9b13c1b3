// Package params decodes the loosely typed parameter maps that
// configuration documents hand to module factories. Numeric coercions
// are deliberately tolerant: YAML decoders deliver ints where floats
// were written and vice versa.
package params

import "fmt"

// Decoder reads typed values out of one parameter map, accumulating the
// first error it hits. Factories chain lookups and check Err once.
type Decoder struct {
	m   map[string]any
	err error
}

func NewDecoder(m map[string]any) *Decoder {
	return &Decoder{m: m}
}

// Err reports the first type mismatch encountered, nil when all lookups
// succeeded.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(key string, want string, got any) {
	if d.err == nil {
		d.err = fmt.Errorf("parameter %s must be %s, got %T", key, want, got)
	}
}

// String returns the named parameter, or def when absent.
func (d *Decoder) String(key, def string) string {
	v, ok := d.m[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		d.fail(key, "a string", v)
		return def
	}
	return s
}

// Int returns the named parameter coerced to int, or def when absent.
func (d *Decoder) Int(key string, def int) int {
	v, ok := d.m[key]
	if !ok {
		return def
	}
	n, ok := asInt(v)
	if !ok {
		d.fail(key, "an integer", v)
		return def
	}
	return n
}

// Int64 returns the named parameter coerced to int64, or def when absent.
func (d *Decoder) Int64(key string, def int64) int64 {
	v, ok := d.m[key]
	if !ok {
		return def
	}
	n, ok := asInt64(v)
	if !ok {
		d.fail(key, "an integer", v)
		return def
	}
	return n
}

// Float returns the named parameter coerced to float64, or def when
// absent.
func (d *Decoder) Float(key string, def float64) float64 {
	v, ok := d.m[key]
	if !ok {
		return def
	}
	f, ok := asFloat64(v)
	if !ok {
		d.fail(key, "a number", v)
		return def
	}
	return f
}

// Bool returns the named parameter, or def when absent.
func (d *Decoder) Bool(key string, def bool) bool {
	v, ok := d.m[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(key, "a bool", v)
		return def
	}
	return b
}

// Strings returns the named list parameter, or nil when absent.
func (d *Decoder) Strings(key string) []string {
	v, ok := d.m[key]
	if !ok {
		return nil
	}
	xs, ok := asStrings(v)
	if !ok {
		d.fail(key, "a list of strings", v)
		return nil
	}
	return xs
}

func asInt(v any) (int, bool) {
	n, ok := asInt64(v)
	return int(n), ok
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float32:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func asStrings(v any) ([]string, bool) {
	switch xs := v.(type) {
	case []string:
		return append([]string(nil), xs...), true
	case []any:
		out := make([]string, 0, len(xs))
		for _, item := range xs {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// AsInt coerces one loose positional argument to int, with the same
// numeric tolerance as the keyed lookups.
func AsInt(v any) (int, bool) { return asInt(v) }
