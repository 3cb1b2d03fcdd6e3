package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xijx23/optiAgent/internal/llm"
	"github.com/xijx23/optiAgent/internal/textparse"
	"github.com/xijx23/optiAgent/internal/types"
)

const promptParams = `You are an optimization modeling expert. Given the natural language
description of an optimization problem, extract every known parameter and
express them in a strict JSON object.

The input JSON carries the problem description under "description".

Rules:
1. Each top-level key is the parameter name in CamelCase.
2. Each value is an object with the fields 'definition', 'shape', 'type', 'value'.
3. 'shape' must be a list: [] for scalar, ["N"], ["N", "M"], etc.
4. 'type' must be one of 'int', 'float', 'binary'.
5. If a numeric value is explicitly stated in the description, place it in
   'value' using numbers or lists; otherwise use null.
6. Do not include commentary before or after the JSON object.

Example output:
{
  "NumberOfFactories": {
    "definition": "How many factories can produce the goods",
    "shape": [],
    "type": "int",
    "value": 3
  },
  "DemandPerRegion": {
    "definition": "Demand for each served region",
    "shape": ["R"],
    "type": "float",
    "value": [1200.0, 950.0, 640.0]
  }
}
`

// Params extracts the known parameters from the problem description.
type Params struct{ LLM llm.Client }

type ParamsOut struct {
	Parameters map[string]types.Parameter
	Trace      Trace
}

func (p *Params) Run(ctx context.Context, description string) (ParamsOut, error) {
	if strings.TrimSpace(description) == "" {
		return ParamsOut{}, fmt.Errorf("pipeline: description cannot be empty when extracting parameters")
	}
	ctx = llm.WithStage(ctx, StageParams)
	input := map[string]any{"description": description}
	raw, err := p.LLM.Generate(ctx, promptParams, input)
	if err != nil {
		return ParamsOut{}, err
	}

	obj, err := textparse.Object(raw)
	if err != nil {
		return ParamsOut{}, fmt.Errorf("pipeline: params: %w\nraw: %s", err, raw)
	}
	var parsed map[string]types.Parameter
	if err := textparse.Decode(obj, &parsed); err != nil {
		return ParamsOut{}, fmt.Errorf("pipeline: params: %w\nraw: %s", err, raw)
	}
	if len(parsed) == 0 {
		return ParamsOut{}, fmt.Errorf("pipeline: params: no parameters extracted\nraw: %s", raw)
	}

	canonical := make(map[string]types.Parameter, len(parsed))
	for name, param := range parsed {
		param.Definition = strings.TrimSpace(param.Definition)
		t, err := types.CanonicalType(param.Type)
		if err == nil {
			param.Type = t
		}
		if err := param.Validate(name); err != nil {
			return ParamsOut{}, err
		}
		canonical[name] = param
	}

	return ParamsOut{
		Parameters: canonical,
		Trace:      Trace{Prompt: llm.ComposePrompt(promptParams, input), Response: raw},
	}, nil
}
