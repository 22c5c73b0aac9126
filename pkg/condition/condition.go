package condition

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

type FieldType string

const (
	FieldTypeString  FieldType = "STRING"
	FieldTypeNumber  FieldType = "NUMBER"
	FieldTypeDate    FieldType = "DATE"
	FieldTypeBoolean FieldType = "BOOLEAN"
	FieldTypeEnum    FieldType = "ENUM"
	FieldTypeArray   FieldType = "ARRAY"
)

type Operator string

const (
	OperatorEquals             Operator = "EQUALS"
	OperatorNotEquals          Operator = "NOT_EQUALS"
	OperatorGreaterThan        Operator = "GREATER_THAN"
	OperatorLessThan           Operator = "LESS_THAN"
	OperatorGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OperatorLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"
	OperatorContains           Operator = "CONTAINS"
	OperatorNotContains        Operator = "NOT_CONTAINS"
	OperatorStartsWith         Operator = "STARTS_WITH"
	OperatorEndsWith           Operator = "ENDS_WITH"
	OperatorIn                 Operator = "IN"
	OperatorNotIn              Operator = "NOT_IN"
	OperatorIsEmpty            Operator = "IS_EMPTY"
	OperatorIsNotEmpty         Operator = "IS_NOT_EMPTY"
	OperatorBetween            Operator = "BETWEEN"
)

type GroupOperator string

const (
	GroupAnd GroupOperator = "AND"
	GroupOr  GroupOperator = "OR"
)

// Condition is a single field predicate, the leaf of a condition tree.
type Condition struct {
	ID        string      `json:"id,omitempty" bson:"id,omitempty"`
	Field     string      `json:"field" bson:"field"`
	FieldType FieldType   `json:"field_type" bson:"field_type"`
	Operator  Operator    `json:"operator" bson:"operator"`
	Value     interface{} `json:"value,omitempty" bson:"value,omitempty"`
}

// Group is a boolean combination of conditions and nested groups.
type Group struct {
	Operator   GroupOperator `json:"operator" bson:"operator"`
	Conditions []Node        `json:"conditions" bson:"conditions"`
}

// Node is the closed sum of the tree: either a leaf Condition or a nested
// Group. Exactly one side is set. On the wire both sides are encoded flat,
// and a nested group is recognized by the presence of its "conditions" key.
type Node struct {
	Leaf  *Condition
	Group *Group
}

func LeafNode(c Condition) Node { return Node{Leaf: &c} }
func GroupNode(g Group) Node    { return Node{Group: &g} }

func (n Node) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	if n.Leaf != nil {
		return json.Marshal(n.Leaf)
	}
	return nil, fmt.Errorf("condition node has neither leaf nor group")
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var probe struct {
		Conditions json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Conditions != nil {
		var g Group
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		*n = Node{Group: &g}
		return nil
	}
	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*n = Node{Leaf: &c}
	return nil
}

func (n Node) MarshalBSON() ([]byte, error) {
	if n.Group != nil {
		return bson.Marshal(n.Group)
	}
	if n.Leaf != nil {
		return bson.Marshal(n.Leaf)
	}
	return nil, fmt.Errorf("condition node has neither leaf nor group")
}

func (n *Node) UnmarshalBSON(data []byte) error {
	raw := bson.Raw(data)
	if _, err := raw.LookupErr("conditions"); err == nil {
		var g Group
		if err := bson.Unmarshal(data, &g); err != nil {
			return err
		}
		*n = Node{Group: &g}
		return nil
	}
	var c Condition
	if err := bson.Unmarshal(data, &c); err != nil {
		return err
	}
	*n = Node{Leaf: &c}
	return nil
}
