package condition

import (
	"errors"
	"testing"
	"time"
)

func leaf(field string, ft FieldType, op Operator, value interface{}) Node {
	return LeafNode(Condition{Field: field, FieldType: ft, Operator: op, Value: value})
}

func TestEvaluateLeafOperators(t *testing.T) {
	record := map[string]interface{}{
		"first_name":        "Grace",
		"membership_status": "active",
		"absence_count":     3.0,
		"tags":              []interface{}{"choir", "volunteer"},
		"is_baptized":       true,
		"email":             "",
		"joined_at":         time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"string equals", leaf("first_name", FieldTypeString, OperatorEquals, "Grace"), true},
		{"string equals is case sensitive", leaf("first_name", FieldTypeString, OperatorEquals, "grace"), false},
		{"string not equals", leaf("first_name", FieldTypeString, OperatorNotEquals, "Ann"), true},
		{"string contains", leaf("first_name", FieldTypeString, OperatorContains, "rac"), true},
		{"string not contains", leaf("first_name", FieldTypeString, OperatorNotContains, "xyz"), true},
		{"string starts with", leaf("first_name", FieldTypeString, OperatorStartsWith, "Gr"), true},
		{"string ends with", leaf("first_name", FieldTypeString, OperatorEndsWith, "ce"), true},
		{"enum in", leaf("membership_status", FieldTypeEnum, OperatorIn, []interface{}{"active", "visitor"}), true},
		{"enum not in", leaf("membership_status", FieldTypeEnum, OperatorNotIn, []interface{}{"inactive"}), true},
		{"number greater than", leaf("absence_count", FieldTypeNumber, OperatorGreaterThan, 2.0), true},
		{"number less than", leaf("absence_count", FieldTypeNumber, OperatorLessThan, 2.0), false},
		{"number gte boundary", leaf("absence_count", FieldTypeNumber, OperatorGreaterThanOrEqual, 3.0), true},
		{"number lte boundary", leaf("absence_count", FieldTypeNumber, OperatorLessThanOrEqual, 3.0), true},
		{"array contains", leaf("tags", FieldTypeArray, OperatorContains, "choir"), true},
		{"array not contains", leaf("tags", FieldTypeArray, OperatorNotContains, "usher"), true},
		{"boolean equals", leaf("is_baptized", FieldTypeBoolean, OperatorEquals, true), true},
		{"empty string is empty", leaf("email", FieldTypeString, OperatorIsEmpty, nil), true},
		{"present value is not empty", leaf("first_name", FieldTypeString, OperatorIsNotEmpty, nil), true},
		{"date after", leaf("joined_at", FieldTypeDate, OperatorGreaterThan, "2024-01-01"), true},
		{"date before", leaf("joined_at", FieldTypeDate, OperatorLessThan, "2024-01-01"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Group{Operator: GroupAnd, Conditions: []Node{tt.node}}
			got, err := Evaluate(g, record)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateMissingField(t *testing.T) {
	record := map[string]interface{}{"first_name": "Grace"}

	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"missing equals is false", leaf("phone", FieldTypeString, OperatorEquals, "555"), false},
		{"missing not equals is true", leaf("phone", FieldTypeString, OperatorNotEquals, "555"), true},
		{"missing is empty is true", leaf("phone", FieldTypeString, OperatorIsEmpty, nil), true},
		{"missing is not empty is false", leaf("phone", FieldTypeString, OperatorIsNotEmpty, nil), false},
		{"missing contains is false", leaf("phone", FieldTypeString, OperatorContains, "5"), false},
		{"missing gt is false", leaf("age", FieldTypeNumber, OperatorGreaterThan, 1.0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Group{Operator: GroupAnd, Conditions: []Node{tt.node}}
			got, err := Evaluate(g, record)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateBetweenBoundaries(t *testing.T) {
	node := leaf("total_giving", FieldTypeNumber, OperatorBetween, []interface{}{5.0, 10.0})
	g := &Group{Operator: GroupAnd, Conditions: []Node{node}}

	tests := []struct {
		value float64
		want  bool
	}{
		{5, true},
		{10, true},
		{4.999, false},
		{10.001, false},
		{7.5, true},
	}

	for _, tt := range tests {
		got, err := Evaluate(g, map[string]interface{}{"total_giving": tt.value})
		if err != nil {
			t.Fatalf("Evaluate(%v) error = %v", tt.value, err)
		}
		if got != tt.want {
			t.Errorf("Evaluate(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestEvaluateBetweenInvertedBounds(t *testing.T) {
	node := leaf("total_giving", FieldTypeNumber, OperatorBetween, []interface{}{10.0, 5.0})
	g := &Group{Operator: GroupAnd, Conditions: []Node{node}}

	got, err := Evaluate(g, map[string]interface{}{"total_giving": 7.0})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got {
		t.Error("BETWEEN with min > max should evaluate false")
	}
}

func TestEvaluateGroupSemantics(t *testing.T) {
	record := map[string]interface{}{"a": "x", "b": "y"}
	aTrue := leaf("a", FieldTypeString, OperatorEquals, "x")
	aFalse := leaf("a", FieldTypeString, OperatorEquals, "z")
	bTrue := leaf("b", FieldTypeString, OperatorEquals, "y")
	bFalse := leaf("b", FieldTypeString, OperatorEquals, "z")

	tests := []struct {
		name  string
		group Group
		want  bool
	}{
		{"AND both true", Group{Operator: GroupAnd, Conditions: []Node{aTrue, bTrue}}, true},
		{"AND one false", Group{Operator: GroupAnd, Conditions: []Node{aTrue, bFalse}}, false},
		{"OR one true", Group{Operator: GroupOr, Conditions: []Node{aFalse, bTrue}}, true},
		{"OR both false", Group{Operator: GroupOr, Conditions: []Node{aFalse, bFalse}}, false},
		{"empty AND is vacuously true", Group{Operator: GroupAnd}, true},
		{"empty OR is vacuously true", Group{Operator: GroupOr}, true},
		{
			"nested OR inside AND",
			Group{Operator: GroupAnd, Conditions: []Node{
				aTrue,
				GroupNode(Group{Operator: GroupOr, Conditions: []Node{bFalse, bTrue}}),
			}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(&tt.group, record)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// AND over two leaves must equal the conjunction of the leaves evaluated
// alone, and likewise OR with disjunction.
func TestEvaluateComposition(t *testing.T) {
	record := map[string]interface{}{"age": 30.0, "city": "Lagos"}

	leaves := []Node{
		leaf("age", FieldTypeNumber, OperatorGreaterThan, 18.0),
		leaf("age", FieldTypeNumber, OperatorLessThan, 25.0),
		leaf("city", FieldTypeString, OperatorEquals, "Lagos"),
		leaf("city", FieldTypeString, OperatorEquals, "Abuja"),
	}

	evalOne := func(n Node) bool {
		got, err := Evaluate(&Group{Operator: GroupAnd, Conditions: []Node{n}}, record)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		return got
	}

	for i, c1 := range leaves {
		for j, c2 := range leaves {
			andGot, err := Evaluate(&Group{Operator: GroupAnd, Conditions: []Node{c1, c2}}, record)
			if err != nil {
				t.Fatalf("AND Evaluate() error = %v", err)
			}
			if want := evalOne(c1) && evalOne(c2); andGot != want {
				t.Errorf("AND(%d,%d) = %v, want %v", i, j, andGot, want)
			}

			orGot, err := Evaluate(&Group{Operator: GroupOr, Conditions: []Node{c1, c2}}, record)
			if err != nil {
				t.Fatalf("OR Evaluate() error = %v", err)
			}
			if want := evalOne(c1) || evalOne(c2); orGot != want {
				t.Errorf("OR(%d,%d) = %v, want %v", i, j, orGot, want)
			}
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	record := map[string]interface{}{"name": "Grace", "age": 30.0}

	tests := []struct {
		name string
		node Node
	}{
		{"gt on string field", LeafNode(Condition{ID: "c1", Field: "name", FieldType: FieldTypeString, Operator: OperatorGreaterThan, Value: "A"})},
		{"between with scalar value", LeafNode(Condition{ID: "c2", Field: "age", FieldType: FieldTypeNumber, Operator: OperatorBetween, Value: 5.0})},
		{"between with 3 bounds", LeafNode(Condition{ID: "c3", Field: "age", FieldType: FieldTypeNumber, Operator: OperatorBetween, Value: []interface{}{1.0, 2.0, 3.0}})},
		{"unknown field type", LeafNode(Condition{ID: "c4", Field: "name", FieldType: "GEO", Operator: OperatorEquals, Value: "x"})},
		{"in without array", LeafNode(Condition{ID: "c5", Field: "name", FieldType: FieldTypeString, Operator: OperatorIn, Value: "x"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Group{Operator: GroupAnd, Conditions: []Node{tt.node}}
			_, err := Evaluate(g, record)
			if err == nil {
				t.Fatal("Evaluate() expected an error")
			}
			var evalError *EvaluationError
			if !errors.As(err, &evalError) {
				t.Fatalf("Evaluate() error = %T, want *EvaluationError", err)
			}
			if evalError.NodeID == "" {
				t.Error("EvaluationError should carry the node id")
			}
		})
	}
}

func TestEvaluatorFoldCase(t *testing.T) {
	record := map[string]interface{}{"city": "LAGOS"}
	g := &Group{Operator: GroupAnd, Conditions: []Node{
		leaf("city", FieldTypeString, OperatorEquals, "lagos"),
	}}

	got, err := Evaluator{FoldCase: true}.Evaluate(g, record)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Error("fold-case evaluator should match LAGOS == lagos")
	}
}
