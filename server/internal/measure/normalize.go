package measure

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field alias priority, firmware name first. The ESP firmware posts
// {valueA, valueB, valueC}; the long names exist so hand-crafted payloads
// and newer firmware revisions normalize the same way.
var (
	tempAliases  = []string{"valueA", "temp", "temperature"}
	humiAliases  = []string{"valueB", "humi", "humidity"}
	lightAliases = []string{"valueC", "light", "lux", "l"}
)

// Reading holds the numeric fields derived from one payload.
// A nil field means no alias carried a usable number.
type Reading struct {
	Temp  *float64
	Humi  *float64
	Light *float64
}

// Empty reports whether no numeric field could be derived at all.
// An empty reading is still ingested; callers only log and count it.
func (r Reading) Empty() bool {
	return r.Temp == nil && r.Humi == nil && r.Light == nil
}

// Normalize derives canonical sensor values from an arbitrary payload.
// For each field the first alias present with a non-nil value is coerced;
// coercion failure yields nil rather than an error. Normalize never rejects
// a payload — malformed producer data must not block ingestion.
func Normalize(raw map[string]any) Reading {
	return Reading{
		Temp:  firstNumber(raw, tempAliases),
		Humi:  firstNumber(raw, humiAliases),
		Light: firstNumber(raw, lightAliases),
	}
}

// firstNumber returns the coerced value of the first alias present in raw.
// An explicit null falls through to the next alias, mirroring how the
// original firmware contract treated absent-vs-null fields.
func firstNumber(raw map[string]any, aliases []string) *float64 {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		return coerce(v)
	}
	return nil
}

// coerce converts a decoded JSON value to a float64, or nil when it is not
// usable as a number. NaN and infinities are unrepresentable on the wire and
// collapse to nil as well.
func coerce(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return finite(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		return finite(f)
	case bool:
		f := 0.0
		if x {
			f = 1.0
		}
		return &f
	default:
		return nil
	}
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
