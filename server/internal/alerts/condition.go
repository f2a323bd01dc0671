package alerts

import (
	"strconv"
	"strings"

	"github.com/espdash/espdash/server/internal/measure"
)

// condState is the outcome of evaluating one condition against one record.
type condState int

const (
	condUnknown condState = iota // field null or expression unparseable
	condFires
	condClear
)

// evalCondition evaluates a rule condition string against a measurement.
//
// Supported expressions (field operator value):
//
//	temp > 30
//	temp <= -5
//	humi < 20
//	light >= 5000
//
// Returns the outcome plus the field's value when it was available.
// A record whose field is null yields condUnknown — the rule neither fires
// nor resolves on it.
func evalCondition(cond string, rec measure.Record) (condState, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return condUnknown, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	v := numericField(field, rec)
	if v == nil {
		return condUnknown, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return condUnknown, 0
	}
	if compareFloat(*v, op, threshold) {
		return condFires, *v
	}
	return condClear, *v
}

// numericField maps a field name to its value on the record.
func numericField(field string, rec measure.Record) *float64 {
	switch field {
	case "temp":
		return rec.Temp
	case "humi":
		return rec.Humi
	case "light":
		return rec.Light
	default:
		return nil
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
