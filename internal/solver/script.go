// Package solver assembles the generated model fragments into a runnable
// gurobipy script and executes it. The solver itself is external; this
// package only produces and runs the glue script.
package solver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xijx23/optiAgent/internal/types"
)

const (
	DefaultScriptName = "solve_model.py"
	DataFileName      = "data.json"
)

// Assembly describes the artifacts written by AssembleScript.
type Assembly struct {
	ScriptPath string
	DataPath   string
	Script     string
}

// gurobiVType maps a type tag to the Gurobi variable type constant.
func gurobiVType(tag string) string {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "int", "integer":
		return "INTEGER"
	case "binary":
		return "BINARY"
	default:
		return "CONTINUOUS"
	}
}

// dimExpr renders one shape dimension as a Python iteration expression.
// Literal sizes become range(N); parameter symbols are resolved at runtime
// through the script's _index_iter helper.
func dimExpr(d types.Dim) string {
	if d.IsSymbol() {
		return fmt.Sprintf("_index_iter(%s)", d.Symbol)
	}
	return fmt.Sprintf("range(%d)", d.Size)
}

// AssembleScript writes data.json (parameter name -> value) and the solver
// script into problemDir, splicing in the generated constraint and objective
// code fragments.
func AssembleScript(state types.State, problemDir, scriptName string) (Assembly, error) {
	if scriptName == "" {
		scriptName = DefaultScriptName
	}
	if err := os.MkdirAll(problemDir, 0o755); err != nil {
		return Assembly{}, err
	}

	data := make(map[string]any, len(state.Parameters))
	for name, spec := range state.Parameters {
		data[name] = spec.Value
	}
	dataBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return Assembly{}, err
	}
	dataPath := filepath.Join(problemDir, DataFileName)
	if err := os.WriteFile(dataPath, dataBytes, 0o644); err != nil {
		return Assembly{}, err
	}

	script := renderScript(state)
	scriptPath := filepath.Join(problemDir, scriptName)
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return Assembly{}, err
	}

	return Assembly{ScriptPath: scriptPath, DataPath: dataPath, Script: script}, nil
}

func renderScript(state types.State) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line("#!/usr/bin/env python3")
	line("from __future__ import annotations")
	line("")
	line("import json")
	line("from pathlib import Path")
	line("")
	line("from gurobipy import Model, GRB, quicksum")
	line("")
	line("")
	line("def _index_iter(obj):")
	line("    if isinstance(obj, int):")
	line("        return range(obj)")
	line("    if isinstance(obj, float):")
	line("        return range(int(obj))")
	line("    if isinstance(obj, dict):")
	line("        return list(obj.keys())")
	line("    if hasattr(obj, '__len__'):")
	line("        return range(len(obj))")
	line("    raise TypeError(f'Unsupported dimension source: {obj!r}')")
	line("")
	line("")
	line("def main() -> None:")
	line("    data_path = Path(__file__).with_name('data.json')")
	line("    data = json.loads(data_path.read_text(encoding='utf-8'))")
	line("")
	if len(state.Parameters) > 0 {
		line("    # Parameters")
		for _, name := range sortedParamNames(state.Parameters) {
			line(fmt.Sprintf("    %s = data.get('%s')", name, name))
		}
		line("")
	}

	line("    model = Model('OptiAgentModel')")
	line("    model.Params.OutputFlag = 1")
	line("")

	if len(state.Variables) > 0 {
		line("    # Decision variables")
		for _, name := range sortedVarNames(state.Variables) {
			spec := state.Variables[name]
			vtype := gurobiVType(spec.Type)
			if spec.Shape.Scalar() {
				line(fmt.Sprintf("    %s = model.addVar(vtype=GRB.%s, name='%s')", name, vtype, name))
				continue
			}
			dims := make([]string, len(spec.Shape))
			for i, d := range spec.Shape {
				dims[i] = dimExpr(d)
			}
			line(fmt.Sprintf("    %s = model.addVars(%s, vtype=GRB.%s, name='%s')",
				name, strings.Join(dims, ", "), vtype, name))
		}
		line("")
	}

	line("    # Constraints")
	for _, constraint := range state.Constraints {
		if constraint.Code == nil || *constraint.Code == "" {
			continue
		}
		for _, raw := range strings.Split(*constraint.Code, "\n") {
			line("    " + raw)
		}
	}
	line("")

	line("    # Objective")
	if state.Objective != nil && state.Objective.Code != nil && *state.Objective.Code != "" {
		for _, raw := range strings.Split(*state.Objective.Code, "\n") {
			line("    " + raw)
		}
	} else {
		line("    # Objective code missing")
	}
	line("")
	line("    model.optimize()")
	line("    status = model.Status")
	line("    if status == GRB.OPTIMAL:")
	line("        print('Optimal objective:', model.objVal)")
	line("        solution = {var.VarName: var.X for var in model.getVars()}")
	line("        print('Solution:', json.dumps(solution, indent=2))")
	line("        output_path = Path(__file__).with_name('output_solution.json')")
	line("        output_path.write_text(json.dumps({'objective': model.objVal, 'solution': solution}, indent=2), encoding='utf-8')")
	line("    else:")
	line("        print(f'Model finished with status {status}')")
	line("")
	line("")
	line("if __name__ == '__main__':")
	line("    main()")

	return b.String()
}

func sortedParamNames(m map[string]types.Parameter) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedVarNames(m map[string]types.Variable) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
