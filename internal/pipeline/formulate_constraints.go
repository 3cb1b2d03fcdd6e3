package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xijx23/optiAgent/internal/llm"
	"github.com/xijx23/optiAgent/internal/textparse"
	"github.com/xijx23/optiAgent/internal/types"
)

const promptFormulateConstraint = `You are an expert in optimization modeling. The input JSON carries:
- "description": the natural language description of an optimization problem
- "parameters": the parameters extracted from the description
- "variables": all decision variables defined so far for the (MI)LP model
- "constraint": the constraint you must model

Your task is to model the constraint mathematically in LaTeX for the MILP
formulation. Please generate the output in the following JSON format:

{
    "FORMULATION": "constraint formulation in LaTeX, between $...$",
    "NEW VARIABLES": {
        "Symbol": {
            "shape": ["N"],
            "type": "int | float | binary",
            "definition": "definition of the new variable in natural language"
        }
    },
    "AUXILIARY CONSTRAINTS": [
        "LaTeX formulation for each auxiliary constraint, between $...$"
    ]
}

Here is an example output (where SalesVolumesPerStore is already defined as
a variable in the vars list):
{
    "FORMULATION": "$\\forall i, SalesVolumes[i] \\leq MaxProductionVolumes[i]$",
    "NEW VARIABLES": {
        "SalesVolumes": {
            "shape": ["NumberOfArticles"],
            "type": "int",
            "definition": "The sales volume for each article of clothing"
        }
    },
    "AUXILIARY CONSTRAINTS": [
        "$\\forall i, SalesVolumes[i] = \\sum_j SalesVolumesPerStore[i, j]$"
    ]
}

- If you need any new variables, you can define them in the NEW VARIABLES
  object. Use {} for "NEW VARIABLES" if no new variables are needed.
- Use [] for "AUXILIARY CONSTRAINTS" if no auxiliary constraints are needed.
- You can only use symbols of existing parameters and integer numbers for
  dimensions of new variables.
- Use CamelCase for variable symbols (e.g. SalesVolumes). Do not use LaTeX
  formatting, indices, or underscores for variable symbols.
- Do not generate anything after the JSON object.

First reason about how the constraint should be formulated, and then
generate the output. Take a deep breath and think step by step.
`

// ConstraintFormulation converts each extracted constraint into a LaTeX
// formulation, accumulating any decision variables the model introduces.
type ConstraintFormulation struct{ LLM llm.Client }

type ConstraintFormulationOut struct {
	Constraints []types.Constraint
	Variables   map[string]types.Variable
	Traces      []Trace
}

type constraintFormulationPayload struct {
	Formulation  string                    `json:"FORMULATION"`
	NewVariables map[string]types.Variable `json:"NEW VARIABLES"`
	Auxiliary    []string                  `json:"AUXILIARY CONSTRAINTS"`
}

func (p *ConstraintFormulation) Run(
	ctx context.Context,
	description string,
	parameters map[string]types.Parameter,
	constraints []types.Constraint,
	existing map[string]types.Variable,
) (ConstraintFormulationOut, error) {
	if strings.TrimSpace(description) == "" {
		return ConstraintFormulationOut{}, fmt.Errorf("pipeline: description cannot be empty when modeling constraints")
	}
	ctx = llm.WithStage(ctx, StageFormulateConstraints)

	variables := make(map[string]types.Variable, len(existing))
	for name, v := range existing {
		variables[name] = v
	}
	out := ConstraintFormulationOut{Variables: variables}

	for _, constraint := range constraints {
		desc := strings.TrimSpace(constraint.Description)
		if desc == "" {
			continue
		}
		input := map[string]any{
			"description": description,
			"parameters":  parameters,
			"variables":   variables,
			"constraint":  desc,
		}
		raw, err := p.LLM.Generate(ctx, promptFormulateConstraint, input)
		if err != nil {
			return ConstraintFormulationOut{}, err
		}
		out.Traces = append(out.Traces, Trace{
			Kind:     "constraint",
			Target:   desc,
			Prompt:   llm.ComposePrompt(promptFormulateConstraint, input),
			Response: raw,
		})

		payload, err := parseConstraintFormulation(raw)
		if err != nil {
			return ConstraintFormulationOut{}, fmt.Errorf("pipeline: formulate %q: %w", desc, err)
		}

		for name, v := range payload.NewVariables {
			v.Definition = strings.TrimSpace(v.Definition)
			if t, err := types.CanonicalType(v.Type); err == nil {
				v.Type = t
			}
			if err := v.Validate(name); err != nil {
				return ConstraintFormulationOut{}, err
			}
			if prev, ok := variables[name]; ok {
				// Models occasionally re-declare a variable they already
				// introduced. Keep the first definition; only a type or
				// shape conflict is an error.
				if !prev.Equal(v) {
					return ConstraintFormulationOut{}, fmt.Errorf(
						"pipeline: variable %s redefined with conflicting spec (%s %s vs %s %s)",
						name, prev.Type, prev.Shape, v.Type, v.Shape)
				}
				continue
			}
			variables[name] = v
		}

		modeled := constraint
		formulation := strings.TrimSpace(payload.Formulation)
		modeled.Formulation = &formulation
		out.Constraints = append(out.Constraints, modeled)

		for _, aux := range payload.Auxiliary {
			aux = strings.TrimSpace(aux)
			if aux == "" {
				continue
			}
			auxCopy := aux
			out.Constraints = append(out.Constraints, types.Constraint{
				Description: "Auxiliary constraint for: " + desc,
				Formulation: &auxCopy,
			})
		}
	}

	return out, nil
}

func parseConstraintFormulation(raw string) (constraintFormulationPayload, error) {
	obj, err := textparse.Object(raw)
	if err != nil {
		return constraintFormulationPayload{}, fmt.Errorf("%w\nraw: %s", err, raw)
	}
	var payload constraintFormulationPayload
	if err := textparse.Decode(obj, &payload); err != nil {
		return constraintFormulationPayload{}, fmt.Errorf("%w\nraw: %s", err, raw)
	}
	if strings.TrimSpace(payload.Formulation) == "" {
		return constraintFormulationPayload{}, fmt.Errorf("FORMULATION field missing or empty\nraw: %s", raw)
	}
	return payload, nil
}
