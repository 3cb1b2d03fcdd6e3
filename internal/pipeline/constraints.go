package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xijx23/optiAgent/internal/llm"
	"github.com/xijx23/optiAgent/internal/textparse"
	"github.com/xijx23/optiAgent/internal/types"
)

const promptConstraints = `You are an expert in optimization modeling. The input JSON carries the
natural language description of an optimization problem under "description"
and the parameters already extracted from it under "parameters".

Your task is to identify and extract constraints from the description. The
constraints are the conditions that must be satisfied by the variables.
Please generate the output in the following JSON list format:

[
    "Constraint 1",
    "Constraint 2"
]

for example:

[
    "Sum of weights of all items taken should not exceed the maximum weight capacity of the knapsack",
    "The number of items taken should not exceed the maximum number of items allowed"
]

- Put all the constraints in a single JSON list.
- Do not generate anything after the list.
- Include implicit non-negativity constraints if necessary.
Take a deep breath and think step by step.
`

// Constraints extracts the natural-language constraint list.
type Constraints struct{ LLM llm.Client }

type ConstraintsOut struct {
	Constraints []types.Constraint
	Trace       Trace
}

func (p *Constraints) Run(ctx context.Context, description string, parameters map[string]types.Parameter) (ConstraintsOut, error) {
	if strings.TrimSpace(description) == "" {
		return ConstraintsOut{}, fmt.Errorf("pipeline: description cannot be empty when extracting constraints")
	}
	ctx = llm.WithStage(ctx, StageConstraints)
	input := map[string]any{
		"description": description,
		"parameters":  parameters,
	}
	raw, err := p.LLM.Generate(ctx, promptConstraints, input)
	if err != nil {
		return ConstraintsOut{}, err
	}

	arr, err := textparse.Array(raw)
	if err != nil {
		return ConstraintsOut{}, fmt.Errorf("pipeline: constraints: %w\nraw: %s", err, raw)
	}
	var descriptions []string
	if err := textparse.Decode(arr, &descriptions); err != nil {
		return ConstraintsOut{}, fmt.Errorf("pipeline: constraints: %w\nraw: %s", err, raw)
	}

	out := make([]types.Constraint, 0, len(descriptions))
	for _, d := range descriptions {
		if cleaned := strings.TrimSpace(d); cleaned != "" {
			out = append(out, types.Constraint{Description: cleaned})
		}
	}
	if len(out) == 0 {
		return ConstraintsOut{}, fmt.Errorf("pipeline: constraints: no constraints extracted\nraw: %s", raw)
	}

	return ConstraintsOut{
		Constraints: out,
		Trace:       Trace{Prompt: llm.ComposePrompt(promptConstraints, input), Response: raw},
	}, nil
}
