package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xijx23/optiAgent/internal/llm"
	"github.com/xijx23/optiAgent/internal/textparse"
	"github.com/xijx23/optiAgent/internal/types"
)

const promptObjective = `You are an expert in optimization modeling. The input JSON carries the
natural language description of an optimization problem under "description"
and the parameters already identified from it under "parameters".

Please identify the optimization objective described in the problem.
Return it using the following exact format:

=====
OBJECTIVE: <objective description in one or two sentences>
=====

Do not add any explanations before or after the block. Think carefully
before responding.
`

// Objective extracts the natural-language optimization objective.
type Objective struct{ LLM llm.Client }

type ObjectiveOut struct {
	Objective types.Objective
	Trace     Trace
}

func (p *Objective) Run(ctx context.Context, description string, parameters map[string]types.Parameter) (ObjectiveOut, error) {
	if strings.TrimSpace(description) == "" {
		return ObjectiveOut{}, fmt.Errorf("pipeline: description cannot be empty when extracting objective")
	}
	ctx = llm.WithStage(ctx, StageObjective)
	input := map[string]any{
		"description": description,
		"parameters":  parameters,
	}
	raw, err := p.LLM.Generate(ctx, promptObjective, input)
	if err != nil {
		return ObjectiveOut{}, err
	}

	text, err := textparse.Tagged(raw, "OBJECTIVE")
	if err != nil {
		return ObjectiveOut{}, fmt.Errorf("pipeline: objective: %w\nraw: %s", err, raw)
	}

	return ObjectiveOut{
		Objective: types.Objective{Description: text},
		Trace:     Trace{Prompt: llm.ComposePrompt(promptObjective, input), Response: raw},
	}, nil
}
