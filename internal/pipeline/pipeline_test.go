package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xijx23/optiAgent/internal/llm"
	"github.com/xijx23/optiAgent/internal/types"
)

// canned replies with fixed responses in call order.
type canned struct {
	responses []string
	calls     int
	prompts   []string
}

func (c *canned) Name() string { return "canned" }
func (c *canned) Close() error { return nil }

func (c *canned) Generate(ctx context.Context, prompt string, input any) (string, error) {
	c.prompts = append(c.prompts, prompt)
	i := c.calls
	c.calls++
	if i >= len(c.responses) {
		return "", llm.ErrEmptyCompletion
	}
	return c.responses[i], nil
}

func TestParamsRun(t *testing.T) {
	cli := &canned{responses: []string{`Here you go:
{
  "NumberOfItems": {"definition": "item count", "shape": [], "type": "Int", "value": 3},
  "ItemWeights": {"definition": "weight per item", "shape": ["NumberOfItems"], "type": "float", "value": [2.0, 1.5, 1.0]}
}
Let me know if you need anything else.`}}

	p := Params{LLM: cli}
	out, err := p.Run(context.Background(), "pack a knapsack")
	require.NoError(t, err)
	require.Len(t, out.Parameters, 2)
	require.Equal(t, types.TypeInt, out.Parameters["NumberOfItems"].Type, "type tag is canonicalized")
	require.Equal(t, types.Shape{{Symbol: "NumberOfItems"}}, out.Parameters["ItemWeights"].Shape)
	require.Contains(t, out.Trace.Response, "NumberOfItems")
}

func TestParamsRunRejectsEmptyDescription(t *testing.T) {
	p := Params{LLM: &canned{}}
	_, err := p.Run(context.Background(), "   ")
	require.Error(t, err)
}

func TestParamsRunRejectsBadType(t *testing.T) {
	cli := &canned{responses: []string{`{"X": {"definition": "x", "shape": [], "type": "string", "value": null}}`}}
	p := Params{LLM: cli}
	_, err := p.Run(context.Background(), "desc")
	require.Error(t, err)
}

func TestObjectiveRun(t *testing.T) {
	cli := &canned{responses: []string{"=====\nOBJECTIVE: Maximize the total value of selected items.\n====="}}
	p := Objective{LLM: cli}
	out, err := p.Run(context.Background(), "pack a knapsack", nil)
	require.NoError(t, err)
	require.Equal(t, "Maximize the total value of selected items.", out.Objective.Description)
	require.Nil(t, out.Objective.Formulation)
}

func TestConstraintsRun(t *testing.T) {
	cli := &canned{responses: []string{`The constraints are:
[
  "Total weight must not exceed MaxWeight",
  "  ",
  "Each item is taken at most once"
]`}}
	p := Constraints{LLM: cli}
	out, err := p.Run(context.Background(), "pack a knapsack", nil)
	require.NoError(t, err)
	require.Len(t, out.Constraints, 2, "blank entries are dropped")
	require.Equal(t, "Total weight must not exceed MaxWeight", out.Constraints[0].Description)
}

func TestConstraintsRunRejectsEmptyList(t *testing.T) {
	p := Constraints{LLM: &canned{responses: []string{"[]"}}}
	_, err := p.Run(context.Background(), "desc", nil)
	require.Error(t, err)
}

func TestConstraintFormulationRun(t *testing.T) {
	cli := &canned{responses: []string{`{
  "FORMULATION": "$\\sum_i ItemWeights[i] \\cdot ItemTaken[i] \\leq MaxWeight$",
  "NEW VARIABLES": {
    "ItemTaken": {"shape": ["NumberOfItems"], "type": "binary", "definition": "whether item i is taken"}
  },
  "AUXILIARY CONSTRAINTS": ["$\\forall i, ItemTaken[i] \\geq 0$"]
}`}}
	p := ConstraintFormulation{LLM: cli}
	constraints := []types.Constraint{{Description: "weight limit"}}
	out, err := p.Run(context.Background(), "pack a knapsack", nil, constraints, nil)
	require.NoError(t, err)

	require.Len(t, out.Constraints, 2, "auxiliary constraint is appended")
	require.NotNil(t, out.Constraints[0].Formulation)
	require.Contains(t, out.Constraints[1].Description, "Auxiliary constraint for: weight limit")

	v, ok := out.Variables["ItemTaken"]
	require.True(t, ok)
	require.Equal(t, types.TypeBinary, v.Type)
	require.Equal(t, types.Shape{{Symbol: "NumberOfItems"}}, v.Shape)
}

func TestConstraintFormulationKeepsFirstVariable(t *testing.T) {
	redeclare := `{
  "FORMULATION": "$x$",
  "NEW VARIABLES": {
    "ItemTaken": {"shape": ["NumberOfItems"], "type": "binary", "definition": "reworded"}
  },
  "AUXILIARY CONSTRAINTS": []
}`
	cli := &canned{responses: []string{redeclare, redeclare}}
	p := ConstraintFormulation{LLM: cli}
	constraints := []types.Constraint{{Description: "first"}, {Description: "second"}}
	existing := map[string]types.Variable{
		"ItemTaken": {Definition: "original", Type: types.TypeBinary, Shape: types.Shape{{Symbol: "NumberOfItems"}}},
	}
	out, err := p.Run(context.Background(), "desc", nil, constraints, existing)
	require.NoError(t, err)
	require.Equal(t, "original", out.Variables["ItemTaken"].Definition)
}

func TestConstraintFormulationRejectsConflict(t *testing.T) {
	cli := &canned{responses: []string{`{
  "FORMULATION": "$x$",
  "NEW VARIABLES": {
    "ItemTaken": {"shape": [], "type": "int", "definition": "conflicting spec"}
  },
  "AUXILIARY CONSTRAINTS": []
}`}}
	p := ConstraintFormulation{LLM: cli}
	existing := map[string]types.Variable{
		"ItemTaken": {Definition: "original", Type: types.TypeBinary, Shape: types.Shape{{Symbol: "NumberOfItems"}}},
	}
	_, err := p.Run(context.Background(), "desc", nil, []types.Constraint{{Description: "c"}}, existing)
	require.ErrorContains(t, err, "redefined")
}

func TestObjectiveFormulationRun(t *testing.T) {
	cli := &canned{responses: []string{`{"FORMULATION": "$$\\max \\sum_i v_i x_i$$", "CODE": null}`}}
	p := ObjectiveFormulation{LLM: cli}
	out, err := p.Run(context.Background(), "desc", nil, nil, types.Objective{Description: "maximize value"})
	require.NoError(t, err)
	require.Equal(t, "maximize value", out.Objective.Description)
	require.NotNil(t, out.Objective.Formulation)
	require.Contains(t, *out.Objective.Formulation, "\\max")
}

func TestCodeGenRun(t *testing.T) {
	cli := &canned{responses: []string{
		"CODE\n=====\nmodel.addConstr(quicksum(w[i] * x[i] for i in range(N)) <= MaxWeight)\n=====",
		"CODE\n=====\nmodel.setObjective(quicksum(v[i] * x[i] for i in range(N)), GRB.MAXIMIZE)\n=====",
	}}
	p := CodeGen{LLM: cli}
	constraints := []types.Constraint{{Description: "weight limit"}}
	out, err := p.Run(context.Background(), "desc", nil, nil, constraints, types.Objective{Description: "maximize value"})
	require.NoError(t, err)

	require.Len(t, out.Constraints, 1)
	require.NotNil(t, out.Constraints[0].Code)
	require.Contains(t, *out.Constraints[0].Code, "model.addConstr")

	require.NotNil(t, out.Objective.Code)
	require.Contains(t, *out.Objective.Code, "model.setObjective")
	require.Len(t, out.Traces, 2)
}

// TestFullChainWithFake drives every model stage with the offline client and
// checks the accumulated state is complete enough to assemble a script.
func TestFullChainWithFake(t *testing.T) {
	ctx := context.Background()
	cli := llm.NewFakeClient()
	description := "Pack items into a knapsack to maximize value without exceeding the weight limit."

	params, err := (&Params{LLM: cli}).Run(ctx, description)
	require.NoError(t, err)
	require.NotEmpty(t, params.Parameters)

	obj, err := (&Objective{LLM: cli}).Run(ctx, description, params.Parameters)
	require.NoError(t, err)

	cons, err := (&Constraints{LLM: cli}).Run(ctx, description, params.Parameters)
	require.NoError(t, err)

	modeled, err := (&ConstraintFormulation{LLM: cli}).Run(ctx, description, params.Parameters, cons.Constraints, nil)
	require.NoError(t, err)
	require.Contains(t, modeled.Variables, "ItemTaken")

	objModeled, err := (&ObjectiveFormulation{LLM: cli}).Run(ctx, description, params.Parameters, modeled.Variables, obj.Objective)
	require.NoError(t, err)
	require.NotNil(t, objModeled.Objective.Formulation)

	code, err := (&CodeGen{LLM: cli}).Run(ctx, description, params.Parameters, modeled.Variables, modeled.Constraints, objModeled.Objective)
	require.NoError(t, err)
	require.NotNil(t, code.Objective.Code)
	for _, c := range code.Constraints {
		require.NotNil(t, c.Code)
	}
}
