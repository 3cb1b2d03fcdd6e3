package types

import (
	"fmt"
	"strings"
)

// Recognized type tags for parameters and decision variables.
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBinary = "binary"
)

// CanonicalType lowercases and validates a type tag from model output.
func CanonicalType(raw string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch t {
	case TypeInt, TypeFloat, TypeBinary:
		return t, nil
	}
	return "", fmt.Errorf("types: unsupported type tag %q", raw)
}

// Problem state ------------------------------------------------------------------

// Parameter is a known quantity extracted from the problem description.
type Parameter struct {
	Definition string `json:"definition"`
	Type       string `json:"type"`
	Shape      Shape  `json:"shape"`
	Value      any    `json:"value"`
}

// Variable is a decision variable introduced while modeling constraints.
type Variable struct {
	Definition string `json:"definition"`
	Type       string `json:"type"`
	Shape      Shape  `json:"shape"`
}

// Objective carries the objective through its three lifecycle fields:
// description after extraction, formulation after modeling, code after codegen.
type Objective struct {
	Description string  `json:"description"`
	Formulation *string `json:"formulation"`
	Code        *string `json:"code"`
}

// Constraint mirrors Objective for a single constraint.
type Constraint struct {
	Description string  `json:"description"`
	Formulation *string `json:"formulation"`
	Code        *string `json:"code"`
}

type Meta struct {
	ProblemName string `json:"problem_name"`
	CreatedAt   string `json:"created_at"`
}

// State is the problem state accumulated across pipeline stages. Each stage
// fills in more fields and the whole document is checkpointed to disk.
type State struct {
	Description string               `json:"description"`
	Parameters  map[string]Parameter `json:"parameters,omitempty"`
	Variables   map[string]Variable  `json:"variables,omitempty"`
	Objective   *Objective           `json:"objective,omitempty"`
	Constraints []Constraint         `json:"constraints,omitempty"`
	Meta        Meta                 `json:"meta"`
}

// Validate checks the invariants a parameter must satisfy after extraction.
func (p Parameter) Validate(name string) error {
	if strings.TrimSpace(p.Definition) == "" {
		return fmt.Errorf("types: parameter %s is missing a definition", name)
	}
	if _, err := CanonicalType(p.Type); err != nil {
		return fmt.Errorf("types: parameter %s: %w", name, err)
	}
	return nil
}

// Validate checks the invariants a variable must satisfy after formulation.
func (v Variable) Validate(name string) error {
	if strings.TrimSpace(v.Definition) == "" {
		return fmt.Errorf("types: variable %s is missing a definition", name)
	}
	if _, err := CanonicalType(v.Type); err != nil {
		return fmt.Errorf("types: variable %s: %w", name, err)
	}
	return nil
}

// Equal reports whether two variable specs agree on type and shape.
// Definitions are free text and not compared.
func (v Variable) Equal(other Variable) bool {
	if v.Type != other.Type || len(v.Shape) != len(other.Shape) {
		return false
	}
	for i := range v.Shape {
		if v.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}
