package dsl

import (
	"fmt"
	"strings"
)

// resolveField extracts field from value. An empty field returns value
// unchanged. A non-empty field strips an optional "$m." prefix (kept for
// readability in schema files that mix sibling references) and looks the
// remainder up as a key of value, when value is a map[string]any.
func resolveField(value any, field string) (any, bool) {
	if field == "" {
		return value, true
	}
	field = strings.TrimPrefix(field, "$m.")
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[field]
	return v, ok
}

// resolveRef resolves a literal or a "$in.<bind>[.field]" reference
// against the bound values of a firing reaction, keyed by bind name.
func resolveRef(v any, bound map[string]any) any {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "$in.") {
		return v
	}
	rest := strings.TrimPrefix(s, "$in.")
	bindName, field, _ := strings.Cut(rest, ".")
	val, ok := bound[bindName]
	if !ok {
		return nil
	}
	if field == "" {
		return val
	}
	resolved, _ := resolveField(val, field)
	return resolved
}

func resolvePayload(payload map[string]any, bound map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = resolveRef(v, bound)
	}
	return out
}

// compareValues applies op between left and right, with numeric
// widening so an int field compares correctly against a float64
// literal decoded from JSON/YAML (and vice versa).
func compareValues(left, right any, op ComparisonOp) bool {
	if lf, rf, ok := asFloats(left, right); ok {
		switch op {
		case OpEq:
			return lf == rf
		case OpNe:
			return lf != rf
		case OpGt:
			return lf > rf
		case OpGte:
			return lf >= rf
		case OpLt:
			return lf < rf
		case OpLte:
			return lf <= rf
		}
		return false
	}

	switch op {
	case OpEq:
		return left == right
	case OpNe:
		return left != right
	default:
		// Ordering operators on non-numeric values fall back to string
		// comparison of their default formatting.
		ls, rs := toComparableString(left), toComparableString(right)
		switch op {
		case OpGt:
			return ls > rs
		case OpGte:
			return ls >= rs
		case OpLt:
			return ls < rs
		case OpLte:
			return ls <= rs
		}
		return false
	}
}

func asFloats(a, b any) (float64, float64, bool) {
	af, ok1 := toFloat(a)
	bf, ok2 := toFloat(b)
	return af, bf, ok1 && ok2
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toComparableString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
