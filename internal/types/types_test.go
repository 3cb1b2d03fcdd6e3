package types

import (
	"encoding/json"
	"testing"

	"github.com/xijx23/optiAgent/internal/tester"
)

func TestParseShape(t *testing.T) {
	s, err := ParseShape("[]")
	tester.NoErr(t, err)
	tester.True(t, s.Scalar())

	s, err = ParseShape("[3, NumberOfItems]")
	tester.NoErr(t, err)
	tester.Eq(t, s, Shape{{Size: 3}, {Symbol: "NumberOfItems"}})

	s, err = ParseShape(`['N', "M"]`)
	tester.NoErr(t, err)
	tester.Eq(t, s, Shape{{Symbol: "N"}, {Symbol: "M"}})

	_, err = ParseShape("3, N")
	tester.Err(t, err, "missing brackets")

	_, err = ParseShape("[N, ]")
	tester.Err(t, err, "empty dimension")
}

func TestShapeUnmarshalList(t *testing.T) {
	var s Shape
	tester.NoErr(t, json.Unmarshal([]byte(`["N", 2]`), &s))
	tester.Eq(t, s, Shape{{Symbol: "N"}, {Size: 2}})
}

func TestShapeUnmarshalStringLiteral(t *testing.T) {
	var s Shape
	tester.NoErr(t, json.Unmarshal([]byte(`"[NumberOfItems]"`), &s))
	tester.Eq(t, s, Shape{{Symbol: "NumberOfItems"}})

	var scalar Shape
	tester.NoErr(t, json.Unmarshal([]byte(`"[]"`), &scalar))
	tester.True(t, scalar.Scalar())
}

func TestShapeMarshal(t *testing.T) {
	b, err := json.Marshal(Shape{{Size: 2}, {Symbol: "N"}})
	tester.NoErr(t, err)
	tester.Eq(t, string(b), `[2,"N"]`)
}

func TestShapeString(t *testing.T) {
	tester.Eq(t, Shape{}.String(), "[]")
	tester.Eq(t, Shape{{Symbol: "N"}, {Size: 3}}.String(), "[N, 3]")
}

func TestCanonicalType(t *testing.T) {
	got, err := CanonicalType(" Int ")
	tester.NoErr(t, err)
	tester.Eq(t, got, TypeInt)

	got, err = CanonicalType("BINARY")
	tester.NoErr(t, err)
	tester.Eq(t, got, TypeBinary)

	_, err = CanonicalType("bool")
	tester.Err(t, err)
}

func TestParameterValidate(t *testing.T) {
	ok := Parameter{Definition: "number of items", Type: TypeInt}
	tester.NoErr(t, ok.Validate("NumberOfItems"))

	missingDef := Parameter{Type: TypeInt}
	tester.Err(t, missingDef.Validate("NumberOfItems"))

	badType := Parameter{Definition: "x", Type: "string"}
	tester.Err(t, badType.Validate("NumberOfItems"))
}

func TestVariableEqual(t *testing.T) {
	a := Variable{Definition: "first", Type: TypeBinary, Shape: Shape{{Symbol: "N"}}}
	b := Variable{Definition: "second wording", Type: TypeBinary, Shape: Shape{{Symbol: "N"}}}
	tester.True(t, a.Equal(b), "definitions are not compared")

	c := Variable{Type: TypeInt, Shape: Shape{{Symbol: "N"}}}
	tester.False(t, a.Equal(c), "type differs")

	d := Variable{Type: TypeBinary, Shape: Shape{{Symbol: "M"}}}
	tester.False(t, a.Equal(d), "shape differs")
}

func TestStateRoundtrip(t *testing.T) {
	form := "$x \\leq 1$"
	st := State{
		Description: "pack the knapsack",
		Parameters: map[string]Parameter{
			"MaxWeight": {Definition: "capacity", Type: TypeFloat, Value: 3.5},
		},
		Variables: map[string]Variable{
			"ItemTaken": {Definition: "selection", Type: TypeBinary, Shape: Shape{{Symbol: "NumberOfItems"}}},
		},
		Objective:   &Objective{Description: "maximize value", Formulation: &form},
		Constraints: []Constraint{{Description: "weight limit", Formulation: &form}},
		Meta:        Meta{ProblemName: "knapsack", CreatedAt: "2026-01-01T00:00:00Z"},
	}
	b, err := json.Marshal(st)
	tester.NoErr(t, err)

	var back State
	tester.NoErr(t, json.Unmarshal(b, &back))
	tester.Eq(t, back.Description, st.Description)
	tester.Eq(t, back.Variables["ItemTaken"].Shape, st.Variables["ItemTaken"].Shape)
	tester.Eq(t, *back.Objective.Formulation, form)
}
