package llm

import (
	"context"
	"strings"
)

// FakeClient returns deterministic per-stage payloads for offline runs and
// tests. The canned answers model a tiny knapsack problem and satisfy every
// stage's parse contract.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	switch StageFrom(ctx) {
	case "params":
		return `{
  "NumberOfItems": {
    "definition": "How many items can be packed",
    "shape": "[]",
    "type": "int",
    "value": 3
  },
  "ItemValues": {
    "definition": "Value of each item",
    "shape": "[NumberOfItems]",
    "type": "float",
    "value": [10.0, 7.5, 4.0]
  },
  "ItemWeights": {
    "definition": "Weight of each item",
    "shape": "[NumberOfItems]",
    "type": "float",
    "value": [2.0, 1.5, 1.0]
  },
  "MaxWeight": {
    "definition": "Maximum total weight the knapsack can hold",
    "shape": "[]",
    "type": "float",
    "value": 3.5
  }
}`, nil
	case "objective":
		return "=====\nOBJECTIVE: Maximize the total value of the selected items.\n=====", nil
	case "constraints":
		return `[
  "The total weight of the selected items must not exceed MaxWeight"
]`, nil
	case "formulate-constraints":
		return `{
  "FORMULATION": "$\\sum_i ItemWeights[i] \\cdot ItemTaken[i] \\leq MaxWeight$",
  "NEW VARIABLES": {
    "ItemTaken": {
      "shape": "[NumberOfItems]",
      "type": "binary",
      "definition": "Whether each item is placed in the knapsack"
    }
  },
  "AUXILIARY CONSTRAINTS": []
}`, nil
	case "formulate-objective":
		return `{
  "FORMULATION": "$$\\max \\sum_i ItemValues[i] \\cdot ItemTaken[i]$$",
  "CODE": null
}`, nil
	case "codegen":
		if strings.Contains(prompt, "setObjective") {
			return "CODE\n=====\nmodel.setObjective(quicksum(ItemValues[i] * ItemTaken[i] for i in range(NumberOfItems)), GRB.MAXIMIZE)\n=====", nil
		}
		return "CODE\n=====\nmodel.addConstr(quicksum(ItemWeights[i] * ItemTaken[i] for i in range(NumberOfItems)) <= MaxWeight)\n=====", nil
	}
	return "{}", nil
}
