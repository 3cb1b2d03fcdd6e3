package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scripted returns canned responses in order and counts calls.
type scripted struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scripted) Name() string { return "scripted" }
func (s *scripted) Close() error { return nil }

func (s *scripted) Generate(ctx context.Context, prompt string, input any) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func TestWrapOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Client) Client {
			return clientFunc(func(ctx context.Context, prompt string, input any) (string, error) {
				order = append(order, name)
				return next.Generate(ctx, prompt, input)
			})
		}
	}
	cli := Wrap(&scripted{responses: []string{"ok"}}, mark("outer"), mark("inner"))
	_, err := cli.Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"outer", "inner"}, order)
}

type clientFunc func(ctx context.Context, prompt string, input any) (string, error)

func (f clientFunc) Name() string { return "func" }
func (f clientFunc) Close() error { return nil }
func (f clientFunc) Generate(ctx context.Context, prompt string, input any) (string, error) {
	return f(ctx, prompt, input)
}

func TestRetryRecovers(t *testing.T) {
	boom := errors.New("boom")
	inner := &scripted{
		responses: []string{"", "", "ok"},
		errs:      []error{boom, boom, nil},
	}
	cli := Wrap(inner, Retry(3, time.Millisecond))
	resp, err := cli.Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
	require.Equal(t, 3, inner.calls)
}

func TestRetryExhausted(t *testing.T) {
	boom := errors.New("boom")
	inner := &scripted{errs: []error{boom, boom, boom}}
	cli := Wrap(inner, Retry(3, time.Millisecond))
	_, err := cli.Generate(context.Background(), "p", nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, inner.calls)
}

func TestRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner := &scripted{errs: []error{errors.New("boom")}}
	cli := Wrap(inner, Retry(5, time.Millisecond))
	_, err := cli.Generate(ctx, "p", nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, inner.calls)
}

func TestWithCache(t *testing.T) {
	inner := &scripted{responses: []string{"first", "second"}}
	cli := Wrap(inner, WithCache(8))

	resp, err := cli.Generate(context.Background(), "p", map[string]any{"k": 1})
	require.NoError(t, err)
	require.Equal(t, "first", resp)

	resp, err = cli.Generate(context.Background(), "p", map[string]any{"k": 1})
	require.NoError(t, err)
	require.Equal(t, "first", resp, "identical request served from cache")
	require.Equal(t, 1, inner.calls)

	resp, err = cli.Generate(context.Background(), "p", map[string]any{"k": 2})
	require.NoError(t, err)
	require.Equal(t, "second", resp)
	require.Equal(t, 2, inner.calls)
}

func TestCacheSkipsErrors(t *testing.T) {
	boom := errors.New("boom")
	inner := &scripted{responses: []string{"", "ok"}, errs: []error{boom, nil}}
	cli := Wrap(inner, WithCache(8))

	_, err := cli.Generate(context.Background(), "p", nil)
	require.ErrorIs(t, err, boom)

	resp, err := cli.Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
}

func TestRateLimitDisabled(t *testing.T) {
	inner := &scripted{responses: []string{"ok"}}
	cli := Wrap(inner, RateLimit(0, 0))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cli.Generate(context.Background(), "p", nil)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled limiter must not block")
	}
}
