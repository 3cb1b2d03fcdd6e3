package llm

import "context"

// PromptHook observes every model round trip, keyed by pipeline stage.
type PromptHook interface {
	Before(ctx context.Context, stage, prompt string, input any)
	After(ctx context.Context, stage, response string, err error)
}

type ctxKeyStage struct{}

// WithStage tags the context with the current pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// StageFrom returns the stage name stored in the context.
func StageFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyStage{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}

// WithHook attaches a PromptHook to every call made through the returned client.
func WithHook(base Client, hook PromptHook) Client {
	return &hooked{base: base, hook: hook}
}

type hooked struct {
	base Client
	hook PromptHook
}

func (h *hooked) Name() string { return h.base.Name() }
func (h *hooked) Close() error { return h.base.Close() }

func (h *hooked) Generate(ctx context.Context, prompt string, input any) (string, error) {
	stage := StageFrom(ctx)
	h.hook.Before(ctx, stage, prompt, input)
	resp, err := h.base.Generate(ctx, prompt, input)
	h.hook.After(ctx, stage, resp, err)
	return resp, err
}
