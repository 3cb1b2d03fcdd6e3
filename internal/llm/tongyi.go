package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TongyiClient calls the Tongyi Qianwen (DashScope) Chat Completions API,
// which is OpenAI-compatible.
// See: https://help.aliyun.com/zh/model-studio/developer-reference/compatibility-of-openai-with-dashscope
type TongyiClient struct {
	http        *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float32
}

const (
	DefaultTongyiModel    = "qwen-plus"
	defaultTongyiEndpoint = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	tongyiSystemPrompt    = "You are a helpful assistant."
)

// NewTongyiClient creates a Tongyi client. If apiKey is empty, it falls back
// to TONGYI_API_KEY, then DASHSCOPE_API_KEY. A missing key is an error: every
// pipeline stage needs the endpoint.
func NewTongyiClient(apiKey, model string) (*TongyiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TONGYI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("DASHSCOPE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("llm: TONGYI_API_KEY (or DASHSCOPE_API_KEY) is not set")
	}
	if model == "" {
		model = DefaultTongyiModel
	}
	return &TongyiClient{
		http:        &http.Client{Timeout: 120 * time.Second},
		apiKey:      apiKey,
		model:       model,
		baseURL:     defaultTongyiEndpoint,
		temperature: 0.2,
	}, nil
}

func (c *TongyiClient) Name() string { return "Tongyi:" + c.model }
func (c *TongyiClient) Close() error { return nil }

type tongyiChatReq struct {
	Model       string          `json:"model"`
	Messages    []tongyiMessage `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
}
type tongyiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type tongyiChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate sends a single user message (prompt + input JSON) and returns the
// raw completion text. Stages do their own block/JSON extraction on top.
func (c *TongyiClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	full := ComposePrompt(prompt, input)

	reqBody := tongyiChatReq{
		Model: c.model,
		Messages: []tongyiMessage{
			{Role: "system", Content: tongyiSystemPrompt},
			{Role: "user", Content: full},
		},
		Temperature: c.temperature,
	}
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm: tongyi status %s: %s", resp.Status, truncate(string(body), 512))
	}
	var out tongyiChatResp
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("llm: tongyi response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("llm: tongyi error %s: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
