package condition

import (
	"encoding/json"
	"testing"
)

func TestOperatorAllowed(t *testing.T) {
	tests := []struct {
		ft   FieldType
		op   Operator
		want bool
	}{
		{FieldTypeString, OperatorContains, true},
		{FieldTypeString, OperatorGreaterThan, false},
		{FieldTypeString, OperatorBetween, false},
		{FieldTypeNumber, OperatorBetween, true},
		{FieldTypeDate, OperatorBetween, true},
		{FieldTypeDate, OperatorContains, false},
		{FieldTypeBoolean, OperatorEquals, true},
		{FieldTypeBoolean, OperatorNotEquals, false},
		{FieldTypeEnum, OperatorIn, true},
		{FieldTypeEnum, OperatorStartsWith, false},
		{FieldTypeArray, OperatorContains, true},
		{FieldTypeArray, OperatorEquals, false},
	}

	for _, tt := range tests {
		if got := OperatorAllowed(tt.ft, tt.op); got != tt.want {
			t.Errorf("OperatorAllowed(%s, %s) = %v, want %v", tt.ft, tt.op, got, tt.want)
		}
	}
}

func TestValidateGroup(t *testing.T) {
	tests := []struct {
		name    string
		group   *Group
		wantErr bool
	}{
		{"nil group", nil, false},
		{"empty group", &Group{Operator: GroupAnd}, false},
		{
			"valid nested tree",
			&Group{Operator: GroupAnd, Conditions: []Node{
				leaf("membership_status", FieldTypeEnum, OperatorEquals, "active"),
				GroupNode(Group{Operator: GroupOr, Conditions: []Node{
					leaf("absence_count", FieldTypeNumber, OperatorGreaterThanOrEqual, 3.0),
					leaf("tags", FieldTypeArray, OperatorContains, "follow-up"),
				}}),
			}},
			false,
		},
		{
			"gt on string rejected",
			&Group{Operator: GroupAnd, Conditions: []Node{
				leaf("first_name", FieldTypeString, OperatorGreaterThan, "A"),
			}},
			true,
		},
		{
			"between on boolean rejected",
			&Group{Operator: GroupAnd, Conditions: []Node{
				leaf("is_baptized", FieldTypeBoolean, OperatorBetween, []interface{}{0.0, 1.0}),
			}},
			true,
		},
		{
			"between needs two bounds",
			&Group{Operator: GroupAnd, Conditions: []Node{
				leaf("absence_count", FieldTypeNumber, OperatorBetween, []interface{}{1.0}),
			}},
			true,
		},
		{
			"is_empty takes no value",
			&Group{Operator: GroupAnd, Conditions: []Node{
				leaf("email", FieldTypeString, OperatorIsEmpty, "x"),
			}},
			true,
		},
		{
			"unknown group operator",
			&Group{Operator: "XOR", Conditions: []Node{
				leaf("first_name", FieldTypeString, OperatorEquals, "A"),
			}},
			true,
		},
		{
			"missing field name",
			&Group{Operator: GroupAnd, Conditions: []Node{
				leaf("", FieldTypeString, OperatorEquals, "A"),
			}},
			true,
		},
		{"empty node", &Group{Operator: GroupAnd, Conditions: []Node{{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroup(tt.group)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGroup() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateGroupDepthCap(t *testing.T) {
	g := &Group{Operator: GroupAnd}
	inner := g
	for i := 0; i < MaxDepth+2; i++ {
		child := Group{Operator: GroupAnd}
		inner.Conditions = []Node{GroupNode(child)}
		inner = inner.Conditions[0].Group
	}

	if err := ValidateGroup(g); err == nil {
		t.Error("ValidateGroup() should reject trees nested past MaxDepth")
	}
}

func TestNodeJSONRoundTrip(t *testing.T) {
	payload := `{
		"operator": "AND",
		"conditions": [
			{"field": "membership_status", "field_type": "ENUM", "operator": "EQUALS", "value": "active"},
			{
				"operator": "OR",
				"conditions": [
					{"field": "absence_count", "field_type": "NUMBER", "operator": "GREATER_THAN", "value": 3},
					{"field": "tags", "field_type": "ARRAY", "operator": "CONTAINS", "value": "follow-up"}
				]
			}
		]
	}`

	var g Group
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(g.Conditions) != 2 {
		t.Fatalf("got %d children, want 2", len(g.Conditions))
	}
	if g.Conditions[0].Leaf == nil || g.Conditions[0].Leaf.Field != "membership_status" {
		t.Error("first child should decode as a leaf condition")
	}
	if g.Conditions[1].Group == nil || g.Conditions[1].Group.Operator != GroupOr {
		t.Error("second child should decode as a nested group")
	}

	out, err := json.Marshal(&g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var round Group
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("round-trip Unmarshal() error = %v", err)
	}
	if round.Conditions[1].Group == nil || len(round.Conditions[1].Group.Conditions) != 2 {
		t.Error("nested group lost through round trip")
	}
}
