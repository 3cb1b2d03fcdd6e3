package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xijx23/optiAgent/internal/llm"
	"github.com/xijx23/optiAgent/internal/textparse"
	"github.com/xijx23/optiAgent/internal/types"
)

const promptCodegenConstraint = `You are an expert in mathematical programming. Convert the constraint in
the input JSON into solver-ready gurobipy code in Python.

The input JSON carries:
- "description": the natural language problem description
- "parameters": the relevant parameters
- "variables": the current decision variables
- "constraint": the constraint to implement (description and formulation)
- "solver": the target solver package

Implementation requirements:
- Assume the Gurobi model has already been instantiated as 'model'.
- Only emit the code that creates this constraint. Do not include imports,
  parameter loading, or variable creation.
- Use model.addConstr / model.addConstrs as appropriate.
- For multi-dimensional variables, use Gurobi's tuple indexing (e.g., Var[i, j]).
- For parameter arrays, use Python list indexing (e.g., Param[i][j]).

Return your answer strictly in this format:
CODE
=====
<python code implementing the constraint>
=====

Do not add explanations before or after the block.
`

const promptCodegenObjective = `You are an expert in mathematical programming. Convert the optimization
objective in the input JSON into solver-ready gurobipy code in Python.

The input JSON carries:
- "description": the natural language problem description
- "parameters": the relevant parameters
- "variables": the current decision variables
- "objective": the objective to implement (description and formulation)
- "solver": the target solver package

Implementation requirements:
- Assume the Gurobi model has already been instantiated as 'model'.
- Only emit the code that defines the objective (no imports or variable
  declarations).
- Use model.setObjective with GRB.MAXIMIZE or GRB.MINIMIZE as appropriate.
- Employ quicksum for summations when helpful.

Return your answer strictly in this format:
CODE
=====
<python code implementing the objective>
=====

Do not add explanations before or after the block.
`

// CodeGen produces solver code fragments for every constraint and for the
// objective, one model call each.
type CodeGen struct {
	LLM    llm.Client
	Solver string // target solver package, defaults to gurobipy
}

type CodeGenOut struct {
	Constraints []types.Constraint
	Objective   types.Objective
	Traces      []Trace
}

func (p *CodeGen) solver() string {
	if p.Solver == "" {
		return "gurobipy"
	}
	return p.Solver
}

func (p *CodeGen) Run(
	ctx context.Context,
	description string,
	parameters map[string]types.Parameter,
	variables map[string]types.Variable,
	constraints []types.Constraint,
	objective types.Objective,
) (CodeGenOut, error) {
	if strings.TrimSpace(description) == "" {
		return CodeGenOut{}, fmt.Errorf("pipeline: description cannot be empty when generating code")
	}
	if strings.TrimSpace(objective.Description) == "" {
		return CodeGenOut{}, fmt.Errorf("pipeline: objective description missing for code generation")
	}
	ctx = llm.WithStage(ctx, StageCodegen)

	var out CodeGenOut
	for _, constraint := range constraints {
		desc := strings.TrimSpace(constraint.Description)
		if desc == "" {
			continue
		}
		input := map[string]any{
			"description": description,
			"parameters":  parameters,
			"variables":   variables,
			"constraint":  constraint,
			"solver":      p.solver(),
		}
		raw, err := p.LLM.Generate(ctx, promptCodegenConstraint, input)
		if err != nil {
			return CodeGenOut{}, err
		}
		out.Traces = append(out.Traces, Trace{
			Kind:     "constraint",
			Target:   desc,
			Prompt:   llm.ComposePrompt(promptCodegenConstraint, input),
			Response: raw,
		})
		code, err := textparse.Code(raw)
		if err != nil {
			return CodeGenOut{}, fmt.Errorf("pipeline: codegen %q: %w\nraw: %s", desc, err, raw)
		}
		coded := constraint
		coded.Code = &code
		out.Constraints = append(out.Constraints, coded)
	}

	input := map[string]any{
		"description": description,
		"parameters":  parameters,
		"variables":   variables,
		"objective":   objective,
		"solver":      p.solver(),
	}
	raw, err := p.LLM.Generate(ctx, promptCodegenObjective, input)
	if err != nil {
		return CodeGenOut{}, err
	}
	out.Traces = append(out.Traces, Trace{
		Kind:     "objective",
		Target:   objective.Description,
		Prompt:   llm.ComposePrompt(promptCodegenObjective, input),
		Response: raw,
	})
	code, err := textparse.Code(raw)
	if err != nil {
		return CodeGenOut{}, fmt.Errorf("pipeline: codegen objective: %w\nraw: %s", err, raw)
	}
	out.Objective = objective
	out.Objective.Code = &code

	return out, nil
}
