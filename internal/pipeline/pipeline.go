// Package pipeline implements the LLM stages that turn a natural-language
// optimization problem into solver-ready model fragments. Each stage is a
// small struct holding a client, a prompt contract, and a Run method that
// parses and validates the model's answer.
package pipeline

// Stage names, used for checkpoint gating, context tagging, and trace logs.
const (
	StageParams               = "params"
	StageObjective            = "objective"
	StageConstraints          = "constraints"
	StageFormulateConstraints = "formulate-constraints"
	StageFormulateObjective   = "formulate-objective"
	StageCodegen              = "codegen"
	StageAssemble             = "assemble"
	StageExecute              = "execute"
)

// Stages lists the resumable stages in execution order.
var Stages = []string{
	StageParams,
	StageObjective,
	StageConstraints,
	StageFormulateConstraints,
	StageFormulateObjective,
	StageCodegen,
	StageAssemble,
	StageExecute,
}

// Trace records one model round trip for the per-stage extraction logs.
type Trace struct {
	Kind     string `json:"kind,omitempty"`
	Target   string `json:"target,omitempty"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}
