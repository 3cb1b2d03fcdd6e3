package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrEmptyCompletion = errors.New("llm: empty completion from model")

// Client is the minimal surface a pipeline stage needs from a model provider.
// Prompt carries the stage contract; input is marshaled and appended as an
// [INPUT JSON] section so stage code never string-formats state into prompts.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string, input any) (string, error)
	Close() error
}

// ComposePrompt renders the full request text sent to a provider.
func ComposePrompt(prompt string, input any) string {
	if input == nil {
		return prompt
	}
	in, _ := json.MarshalIndent(input, "", "  ")
	return prompt + "\n\n[INPUT JSON]\n" + string(in)
}
