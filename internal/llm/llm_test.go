package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposePrompt(t *testing.T) {
	full := ComposePrompt("Extract the parameters.", map[string]any{"description": "pack a knapsack"})
	require.Contains(t, full, "Extract the parameters.")
	require.Contains(t, full, "[INPUT JSON]")
	require.Contains(t, full, `"description": "pack a knapsack"`)
}

func TestComposePromptNilInput(t *testing.T) {
	full := ComposePrompt("Just the prompt.", nil)
	require.Equal(t, "Just the prompt.", full)
}

func TestStageContext(t *testing.T) {
	require.Equal(t, "unknown", StageFrom(context.Background()))
	ctx := WithStage(context.Background(), "params")
	require.Equal(t, "params", StageFrom(ctx))
}

type recordingHook struct {
	beforeStage string
	afterStage  string
	response    string
	err         error
}

func (h *recordingHook) Before(ctx context.Context, stage, prompt string, input any) {
	h.beforeStage = stage
}

func (h *recordingHook) After(ctx context.Context, stage, response string, err error) {
	h.afterStage = stage
	h.response = response
	h.err = err
}

func TestWithHook(t *testing.T) {
	hook := &recordingHook{}
	cli := WithHook(&scripted{responses: []string{"answer"}}, hook)

	ctx := WithStage(context.Background(), "objective")
	resp, err := cli.Generate(ctx, "p", nil)
	require.NoError(t, err)
	require.Equal(t, "answer", resp)
	require.Equal(t, "objective", hook.beforeStage)
	require.Equal(t, "objective", hook.afterStage)
	require.Equal(t, "answer", hook.response)
	require.NoError(t, hook.err)
}

func TestWithHookPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	hook := &recordingHook{}
	cli := WithHook(&scripted{errs: []error{boom}}, hook)

	_, err := cli.Generate(context.Background(), "p", nil)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, hook.err, boom)
}

func TestNewTongyiClientRequiresKey(t *testing.T) {
	t.Setenv("TONGYI_API_KEY", "")
	t.Setenv("DASHSCOPE_API_KEY", "")
	_, err := NewTongyiClient("", "")
	require.Error(t, err)
}

func TestNewTongyiClientDefaults(t *testing.T) {
	cli, err := NewTongyiClient("test-key", "")
	require.NoError(t, err)
	require.Equal(t, "Tongyi:"+DefaultTongyiModel, cli.Name())
}
