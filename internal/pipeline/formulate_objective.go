package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xijx23/optiAgent/internal/llm"
	"github.com/xijx23/optiAgent/internal/textparse"
	"github.com/xijx23/optiAgent/internal/types"
)

const promptFormulateObjective = `You are an expert in optimization modeling. Convert the objective of the
problem into a LaTeX optimization expression.

The input JSON carries:
- "description": the natural language problem description
- "parameters": the known parameters
- "variables": the decision variables defined so far
- "objective": the objective in natural language

Return ONLY a JSON object:
{
  "FORMULATION": "<LaTeX expression wrapped in $$ ... $$>",
  "CODE": null
}

Guidelines:
- Use existing parameters/variables only.
- Keep the LaTeX within $$ ... $$ and ensure it represents a
  maximize/minimize statement.
- Do not include explanatory text outside the JSON object.
`

// ObjectiveFormulation converts the extracted objective into LaTeX.
type ObjectiveFormulation struct{ LLM llm.Client }

type ObjectiveFormulationOut struct {
	Objective types.Objective
	Trace     Trace
}

func (p *ObjectiveFormulation) Run(
	ctx context.Context,
	description string,
	parameters map[string]types.Parameter,
	variables map[string]types.Variable,
	objective types.Objective,
) (ObjectiveFormulationOut, error) {
	if strings.TrimSpace(description) == "" {
		return ObjectiveFormulationOut{}, fmt.Errorf("pipeline: description cannot be empty when modeling objective")
	}
	if strings.TrimSpace(objective.Description) == "" {
		return ObjectiveFormulationOut{}, fmt.Errorf("pipeline: objective description missing")
	}
	ctx = llm.WithStage(ctx, StageFormulateObjective)

	input := map[string]any{
		"description": description,
		"parameters":  parameters,
		"variables":   variables,
		"objective":   objective.Description,
	}
	raw, err := p.LLM.Generate(ctx, promptFormulateObjective, input)
	if err != nil {
		return ObjectiveFormulationOut{}, err
	}

	obj, err := textparse.Object(raw)
	if err != nil {
		return ObjectiveFormulationOut{}, fmt.Errorf("pipeline: objective formulation: %w\nraw: %s", err, raw)
	}
	var payload struct {
		Formulation string `json:"FORMULATION"`
	}
	if err := textparse.Decode(obj, &payload); err != nil {
		return ObjectiveFormulationOut{}, fmt.Errorf("pipeline: objective formulation: %w\nraw: %s", err, raw)
	}
	formulation := strings.TrimSpace(payload.Formulation)
	if formulation == "" {
		return ObjectiveFormulationOut{}, fmt.Errorf("pipeline: objective formulation: FORMULATION field missing or empty\nraw: %s", raw)
	}

	return ObjectiveFormulationOut{
		Objective: types.Objective{
			Description: objective.Description,
			Formulation: &formulation,
		},
		Trace: Trace{Prompt: llm.ComposePrompt(promptFormulateObjective, input), Response: raw},
	}, nil
}
