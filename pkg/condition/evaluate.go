package condition

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EvaluationError marks a single predicate that could not be evaluated, e.g.
// an operator applied to a field type it does not support or a malformed
// value shape. Batch callers catch it per candidate and keep going.
type EvaluationError struct {
	NodeID string
	Field  string
	Reason string
}

func (e *EvaluationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("condition %s on field %q: %s", e.NodeID, e.Field, e.Reason)
	}
	return fmt.Sprintf("condition on field %q: %s", e.Field, e.Reason)
}

func evalErr(c *Condition, format string, args ...interface{}) error {
	return &EvaluationError{NodeID: c.ID, Field: c.Field, Reason: fmt.Sprintf(format, args...)}
}

// Evaluator evaluates condition trees against flat field records. The zero
// value compares strings case-sensitively.
type Evaluator struct {
	FoldCase bool
}

// Evaluate applies the tree to a record. It is pure and always terminates:
// trees are owned values decoded from storage, so no cycles can exist, and
// depth is capped at validation time.
func Evaluate(g *Group, record map[string]interface{}) (bool, error) {
	return Evaluator{}.Evaluate(g, record)
}

func (ev Evaluator) Evaluate(g *Group, record map[string]interface{}) (bool, error) {
	if g == nil {
		return true, nil
	}
	return ev.evalGroup(g, record)
}

func (ev Evaluator) evalGroup(g *Group, record map[string]interface{}) (bool, error) {
	// An empty group matches vacuously, for AND and OR alike.
	if len(g.Conditions) == 0 {
		return true, nil
	}

	or := g.Operator == GroupOr
	for i := range g.Conditions {
		node := &g.Conditions[i]
		var (
			matched bool
			err     error
		)
		switch {
		case node.Group != nil:
			matched, err = ev.evalGroup(node.Group, record)
		case node.Leaf != nil:
			matched, err = ev.evalLeaf(node.Leaf, record)
		default:
			return false, &EvaluationError{Reason: "empty node in condition group"}
		}
		if err != nil {
			return false, err
		}
		if or && matched {
			return true, nil
		}
		if !or && !matched {
			return false, nil
		}
	}
	return !or, nil
}

func (ev Evaluator) evalLeaf(c *Condition, record map[string]interface{}) (bool, error) {
	val, exists := record[c.Field]
	if val == nil {
		exists = false
	}

	switch c.Operator {
	case OperatorIsEmpty:
		return !exists || isEmptyValue(val), nil
	case OperatorIsNotEmpty:
		return exists && !isEmptyValue(val), nil
	}

	if !exists {
		// A value a record does not carry differs from any expected value.
		return c.Operator == OperatorNotEquals, nil
	}

	switch c.FieldType {
	case FieldTypeString, FieldTypeEnum:
		return ev.evalString(c, val)
	case FieldTypeNumber:
		return ev.evalNumber(c, val)
	case FieldTypeDate:
		return ev.evalDate(c, val)
	case FieldTypeBoolean:
		return ev.evalBoolean(c, val)
	case FieldTypeArray:
		return ev.evalArray(c, val)
	default:
		return false, evalErr(c, "unknown field type %q", c.FieldType)
	}
}

func (ev Evaluator) evalString(c *Condition, val interface{}) (bool, error) {
	got, ok := asString(val)
	if !ok {
		return false, evalErr(c, "record value %v is not a string", val)
	}

	fold := func(s string) string {
		if ev.FoldCase {
			return strings.ToLower(s)
		}
		return s
	}
	got = fold(got)

	switch c.Operator {
	case OperatorIn, OperatorNotIn:
		items, ok := asSlice(c.Value)
		if !ok {
			return false, evalErr(c, "%s requires an array value", c.Operator)
		}
		found := false
		for _, item := range items {
			s, ok := asString(item)
			if ok && fold(s) == got {
				found = true
				break
			}
		}
		if c.Operator == OperatorIn {
			return found, nil
		}
		return !found, nil
	}

	want, ok := asString(c.Value)
	if !ok {
		return false, evalErr(c, "%s requires a string value", c.Operator)
	}
	want = fold(want)

	switch c.Operator {
	case OperatorEquals:
		return got == want, nil
	case OperatorNotEquals:
		return got != want, nil
	case OperatorContains:
		return strings.Contains(got, want), nil
	case OperatorNotContains:
		return !strings.Contains(got, want), nil
	case OperatorStartsWith:
		return strings.HasPrefix(got, want), nil
	case OperatorEndsWith:
		return strings.HasSuffix(got, want), nil
	default:
		return false, evalErr(c, "operator %s not supported for %s fields", c.Operator, c.FieldType)
	}
}

func (ev Evaluator) evalNumber(c *Condition, val interface{}) (bool, error) {
	got, ok := asNumber(val)
	if !ok {
		return false, evalErr(c, "record value %v is not a number", val)
	}

	switch c.Operator {
	case OperatorIn, OperatorNotIn:
		items, ok := asSlice(c.Value)
		if !ok {
			return false, evalErr(c, "%s requires an array value", c.Operator)
		}
		found := false
		for _, item := range items {
			if n, ok := asNumber(item); ok && n == got {
				found = true
				break
			}
		}
		if c.Operator == OperatorIn {
			return found, nil
		}
		return !found, nil
	case OperatorBetween:
		min, max, err := betweenBounds(c, asNumber)
		if err != nil {
			return false, err
		}
		if min > max {
			return false, nil
		}
		return got >= min && got <= max, nil
	}

	want, ok := asNumber(c.Value)
	if !ok {
		return false, evalErr(c, "%s requires a numeric value", c.Operator)
	}
	return compareOrdered(c, got, want)
}

func (ev Evaluator) evalDate(c *Condition, val interface{}) (bool, error) {
	got, ok := asTime(val)
	if !ok {
		return false, evalErr(c, "record value %v is not a date", val)
	}

	if c.Operator == OperatorBetween {
		min, max, err := betweenBounds(c, asTime)
		if err != nil {
			return false, err
		}
		if min.After(max) {
			return false, nil
		}
		return !got.Before(min) && !got.After(max), nil
	}

	want, ok := asTime(c.Value)
	if !ok {
		return false, evalErr(c, "%s requires a date value", c.Operator)
	}

	switch c.Operator {
	case OperatorEquals:
		return got.Equal(want), nil
	case OperatorNotEquals:
		return !got.Equal(want), nil
	case OperatorGreaterThan:
		return got.After(want), nil
	case OperatorLessThan:
		return got.Before(want), nil
	case OperatorGreaterThanOrEqual:
		return !got.Before(want), nil
	case OperatorLessThanOrEqual:
		return !got.After(want), nil
	default:
		return false, evalErr(c, "operator %s not supported for DATE fields", c.Operator)
	}
}

func (ev Evaluator) evalBoolean(c *Condition, val interface{}) (bool, error) {
	got, ok := val.(bool)
	if !ok {
		return false, evalErr(c, "record value %v is not a boolean", val)
	}
	want, ok := c.Value.(bool)
	if !ok {
		return false, evalErr(c, "EQUALS on a boolean field requires a boolean value")
	}
	if c.Operator != OperatorEquals {
		return false, evalErr(c, "operator %s not supported for BOOLEAN fields", c.Operator)
	}
	return got == want, nil
}

func (ev Evaluator) evalArray(c *Condition, val interface{}) (bool, error) {
	items, ok := asSlice(val)
	if !ok {
		return false, evalErr(c, "record value %v is not an array", val)
	}

	switch c.Operator {
	case OperatorContains, OperatorNotContains:
		found := false
		for _, item := range items {
			if looseEqual(item, c.Value, ev.FoldCase) {
				found = true
				break
			}
		}
		if c.Operator == OperatorContains {
			return found, nil
		}
		return !found, nil
	default:
		return false, evalErr(c, "operator %s not supported for ARRAY fields", c.Operator)
	}
}

func compareOrdered(c *Condition, got, want float64) (bool, error) {
	switch c.Operator {
	case OperatorEquals:
		return got == want, nil
	case OperatorNotEquals:
		return got != want, nil
	case OperatorGreaterThan:
		return got > want, nil
	case OperatorLessThan:
		return got < want, nil
	case OperatorGreaterThanOrEqual:
		return got >= want, nil
	case OperatorLessThanOrEqual:
		return got <= want, nil
	default:
		return false, evalErr(c, "operator %s not supported for NUMBER fields", c.Operator)
	}
}

// betweenBounds extracts the [min, max] pair of a BETWEEN value.
func betweenBounds[T any](c *Condition, conv func(interface{}) (T, bool)) (T, T, error) {
	var zero T
	pair, ok := asSlice(c.Value)
	if !ok || len(pair) != 2 {
		return zero, zero, evalErr(c, "BETWEEN requires a [min, max] pair")
	}
	min, ok := conv(pair[0])
	if !ok {
		return zero, zero, evalErr(c, "BETWEEN lower bound %v has the wrong type", pair[0])
	}
	max, ok := conv(pair[1])
	if !ok {
		return zero, zero, evalErr(c, "BETWEEN upper bound %v has the wrong type", pair[1])
	}
	return min, max, nil
}

func isEmptyValue(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case primitive.A:
		return len(v) == 0
	default:
		return false
	}
}

func asString(val interface{}) (string, bool) {
	s, ok := val.(string)
	return s, ok
}

func asNumber(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// asTime accepts time values as stored by mongo, plus the RFC 3339 and plain
// date strings the API layer sends.
func asTime(val interface{}) (time.Time, bool) {
	switch v := val.(type) {
	case time.Time:
		return v, true
	case primitive.DateTime:
		return v.Time(), true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func asSlice(val interface{}) ([]interface{}, bool) {
	switch v := val.(type) {
	case []interface{}:
		return v, true
	case primitive.A:
		return v, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func looseEqual(a, b interface{}, foldCase bool) bool {
	if as, ok := asString(a); ok {
		bs, ok := asString(b)
		if !ok {
			return false
		}
		if foldCase {
			return strings.EqualFold(as, bs)
		}
		return as == bs
	}
	if an, ok := asNumber(a); ok {
		bn, ok := asNumber(b)
		return ok && an == bn
	}
	return a == b
}
