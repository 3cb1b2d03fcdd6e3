package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// WithCache memoizes completions in an LRU keyed by provider, prompt, and
// input JSON. Re-running a stage after a downstream failure then hits the
// cache instead of the paid endpoint.
func WithCache(size int) Middleware {
	if size <= 0 {
		size = 256
	}
	return func(next Client) Client {
		cache, err := lru.New[string, string](size)
		if err != nil {
			return next
		}
		return &cached{next: next, cache: cache}
	}
}

type cached struct {
	next  Client
	cache *lru.Cache[string, string]
}

func (c *cached) Name() string { return c.next.Name() }
func (c *cached) Close() error { return c.next.Close() }

func (c *cached) Generate(ctx context.Context, prompt string, input any) (string, error) {
	key := c.key(prompt, input)
	if resp, ok := c.cache.Get(key); ok {
		return resp, nil
	}
	resp, err := c.next.Generate(ctx, prompt, input)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, resp)
	return resp, nil
}

func (c *cached) key(prompt string, input any) string {
	h := sha256.New()
	h.Write([]byte(c.next.Name()))
	h.Write([]byte{0})
	h.Write([]byte(ComposePrompt(prompt, input)))
	return hex.EncodeToString(h.Sum(nil))
}
