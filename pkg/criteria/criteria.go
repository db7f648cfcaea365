// Package criteria evaluates tier criteria documents against client records.
// A criteria map supports simple equality, min_/max_ prefixed range checks,
// and operator-form conditions.
package criteria

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Supported operators
const (
	OpEquals   = ""          // default, no prefix - simple equality
	OpIn       = "$in"       // value is in array of options
	OpGte      = "$gte"      // greater than or equal
	OpGt       = "$gt"       // greater than
	OpLte      = "$lte"      // less than or equal
	OpLt       = "$lt"       // less than
	OpExists   = "$exists"   // field exists (value should be bool)
	OpNe       = "$ne"       // not equal
	OpContains = "$contains" // string field contains substring
)

// Condition is a single field check. All conditions on a tier must match
// (AND logic).
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// Parse converts a criteria map to structured conditions.
// Three document shapes are accepted:
//
//	{"segment": "Institutional"}         simple equality
//	{"min_revenue": 1000000}             gte on the "revenue" field
//	{"revenue": {"$gte": 1000000}}       explicit operator form
//
// max_ prefixes map to lte the same way min_ maps to gte.
func Parse(criteria map[string]any) []Condition {
	var conditions []Condition

	for field, value := range criteria {
		switch v := value.(type) {
		case map[string]any:
			for op, opValue := range v {
				conditions = append(conditions, Condition{
					Field:    field,
					Operator: op,
					Value:    opValue,
				})
			}
		default:
			switch {
			case strings.HasPrefix(field, "min_"):
				conditions = append(conditions, Condition{
					Field:    strings.TrimPrefix(field, "min_"),
					Operator: OpGte,
					Value:    v,
				})
			case strings.HasPrefix(field, "max_"):
				conditions = append(conditions, Condition{
					Field:    strings.TrimPrefix(field, "max_"),
					Operator: OpLte,
					Value:    v,
				})
			default:
				conditions = append(conditions, Condition{
					Field:    field,
					Operator: OpEquals,
					Value:    v,
				})
			}
		}
	}

	return conditions
}

// MatchesClient reports whether the client satisfies every condition.
// Field lookup goes through models.Client.Field, so both fixed columns and
// extra attributes are addressable.
func MatchesClient(client models.Client, conditions []Condition) bool {
	for _, cond := range conditions {
		if !evaluate(client, cond) {
			return false
		}
	}
	return true
}

func evaluate(client models.Client, cond Condition) bool {
	value, exists := client.Field(cond.Field)
	if exists && value == nil {
		exists = false
	}

	switch cond.Operator {
	case OpEquals:
		return exists && valuesEqual(value, cond.Value)

	case OpNe:
		if !exists {
			return true
		}
		return !valuesEqual(value, cond.Value)

	case OpExists:
		expect, ok := cond.Value.(bool)
		if !ok {
			return false
		}
		return exists == expect

	case OpIn:
		if !exists {
			return false
		}
		options, ok := toSlice(cond.Value)
		if !ok {
			return false
		}
		for _, opt := range options {
			if valuesEqual(value, opt) {
				return true
			}
		}
		return false

	case OpContains:
		if !exists {
			return false
		}
		actual, ok1 := value.(string)
		want, ok2 := cond.Value.(string)
		if !ok1 || !ok2 {
			return false
		}
		return strings.Contains(strings.ToLower(actual), strings.ToLower(want))

	case OpGte, OpGt, OpLte, OpLt:
		if !exists {
			return false
		}
		return compareNumeric(value, cond.Operator, cond.Value)

	default:
		// Unknown operator
		return false
	}
}

// valuesEqual compares with string coercion so a float64 from JSON matches
// an int attribute and vice versa.
func valuesEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toSlice(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	case []string:
		out := make([]any, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(arr))
		for i, n := range arr {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(arr))
		for i, n := range arr {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func compareNumeric(actual any, op string, expected any) bool {
	actualNum, ok := toFloat64(actual)
	if !ok {
		return false
	}
	expectedNum, ok := toFloat64(expected)
	if !ok {
		return false
	}

	switch op {
	case OpGte:
		return actualNum >= expectedNum
	case OpGt:
		return actualNum > expectedNum
	case OpLte:
		return actualNum <= expectedNum
	case OpLt:
		return actualNum < expectedNum
	default:
		return false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
