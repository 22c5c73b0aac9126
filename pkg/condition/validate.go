package condition

import "fmt"

// MaxDepth caps tree nesting. Decoded trees are owned values and cannot be
// cyclic, so the cap only guards against degenerate payloads.
const MaxDepth = 16

var allowedOperators = map[FieldType]map[Operator]bool{
	FieldTypeString: {
		OperatorEquals: true, OperatorNotEquals: true,
		OperatorContains: true, OperatorNotContains: true,
		OperatorStartsWith: true, OperatorEndsWith: true,
		OperatorIn: true, OperatorNotIn: true,
		OperatorIsEmpty: true, OperatorIsNotEmpty: true,
	},
	FieldTypeNumber: {
		OperatorEquals: true, OperatorNotEquals: true,
		OperatorGreaterThan: true, OperatorLessThan: true,
		OperatorGreaterThanOrEqual: true, OperatorLessThanOrEqual: true,
		OperatorBetween: true,
		OperatorIn:      true, OperatorNotIn: true,
		OperatorIsEmpty: true, OperatorIsNotEmpty: true,
	},
	FieldTypeDate: {
		OperatorEquals: true, OperatorNotEquals: true,
		OperatorGreaterThan: true, OperatorLessThan: true,
		OperatorGreaterThanOrEqual: true, OperatorLessThanOrEqual: true,
		OperatorBetween: true,
		OperatorIsEmpty: true, OperatorIsNotEmpty: true,
	},
	FieldTypeBoolean: {
		OperatorEquals: true,
	},
	FieldTypeEnum: {
		OperatorEquals: true, OperatorNotEquals: true,
		OperatorIn: true, OperatorNotIn: true,
		OperatorIsEmpty: true, OperatorIsNotEmpty: true,
	},
	FieldTypeArray: {
		OperatorContains: true, OperatorNotContains: true,
		OperatorIsEmpty: true, OperatorIsNotEmpty: true,
	},
}

// OperatorAllowed reports whether an operator may be applied to a field type.
func OperatorAllowed(ft FieldType, op Operator) bool {
	return allowedOperators[ft][op]
}

// ValidateGroup rejects trees that must never reach storage: illegal
// operator/field-type pairs, malformed value shapes, unknown group operators
// and nesting beyond MaxDepth.
func ValidateGroup(g *Group) error {
	if g == nil {
		return nil
	}
	return validateGroup(g, 0)
}

func validateGroup(g *Group, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("condition tree exceeds maximum nesting depth of %d", MaxDepth)
	}
	if g.Operator != GroupAnd && g.Operator != GroupOr {
		return fmt.Errorf("unknown group operator %q", g.Operator)
	}
	for i := range g.Conditions {
		node := &g.Conditions[i]
		switch {
		case node.Group != nil:
			if err := validateGroup(node.Group, depth+1); err != nil {
				return err
			}
		case node.Leaf != nil:
			if err := validateLeaf(node.Leaf); err != nil {
				return err
			}
		default:
			return fmt.Errorf("condition group contains an empty node")
		}
	}
	return nil
}

func validateLeaf(c *Condition) error {
	if c.Field == "" {
		return fmt.Errorf("condition is missing a field")
	}
	ops, ok := allowedOperators[c.FieldType]
	if !ok {
		return fmt.Errorf("field %q: unknown field type %q", c.Field, c.FieldType)
	}
	if !ops[c.Operator] {
		return fmt.Errorf("field %q: operator %s is not valid for %s fields", c.Field, c.Operator, c.FieldType)
	}

	switch c.Operator {
	case OperatorIsEmpty, OperatorIsNotEmpty:
		if c.Value != nil {
			return fmt.Errorf("field %q: %s takes no value", c.Field, c.Operator)
		}
	case OperatorIn, OperatorNotIn:
		if _, ok := asSlice(c.Value); !ok {
			return fmt.Errorf("field %q: %s requires an array value", c.Field, c.Operator)
		}
	case OperatorBetween:
		pair, ok := asSlice(c.Value)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("field %q: BETWEEN requires a [min, max] pair", c.Field)
		}
	default:
		if c.Value == nil {
			return fmt.Errorf("field %q: %s requires a value", c.Field, c.Operator)
		}
	}
	return nil
}
