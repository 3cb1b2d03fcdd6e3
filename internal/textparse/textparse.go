// Package textparse locates JSON payloads and delimited blocks inside
// free-form LLM responses. Models wrap their answers in prose, markdown
// fences, or stray delimiters; every helper here is a best-effort slice
// of the outermost recognizable region.
package textparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BlockDelimiter separates structured answer blocks in the prompt contracts.
const BlockDelimiter = "====="

var (
	ErrNoJSONObject = errors.New("textparse: no JSON object found in response")
	ErrNoJSONArray  = errors.New("textparse: no JSON array found in response")
	ErrNoBlock      = errors.New("textparse: no delimited block found in response")
	ErrNoCode       = errors.New("textparse: no code block found in response")
)

// Object returns the outermost {...} region of text.
func Object(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, ErrNoJSONObject
	}
	return json.RawMessage(text[start : end+1]), nil
}

// Array returns the outermost [...] region of text.
func Array(text string) (json.RawMessage, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, ErrNoJSONArray
	}
	return json.RawMessage(text[start : end+1]), nil
}

// Decode unmarshals raw into v. On failure it retries once with literal
// "\n" escape sequences expanded, which some models emit inside otherwise
// valid JSON.
func Decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	relaxed := strings.ReplaceAll(string(raw), `\\n`, "\n")
	if err := json.Unmarshal([]byte(relaxed), v); err != nil {
		return fmt.Errorf("textparse: decode JSON: %w", err)
	}
	return nil
}

// Block returns the text between the first pair of ===== delimiters.
func Block(text string) (string, error) {
	start := strings.Index(text, BlockDelimiter)
	if start == -1 {
		return "", ErrNoBlock
	}
	rest := text[start+len(BlockDelimiter):]
	end := strings.Index(rest, BlockDelimiter)
	if end == -1 {
		return "", ErrNoBlock
	}
	core := strings.TrimSpace(rest[:end])
	if core == "" {
		return "", ErrNoBlock
	}
	return core, nil
}

// Tagged extracts a ===== block and strips a leading "TAG:" prefix
// (case-insensitive), e.g. "OBJECTIVE: maximize total profit".
func Tagged(text, tag string) (string, error) {
	core, err := Block(text)
	if err != nil {
		return "", err
	}
	prefix := tag + ":"
	if len(core) >= len(prefix) && strings.EqualFold(core[:len(prefix)], prefix) {
		core = strings.TrimSpace(core[len(prefix):])
	}
	if core == "" {
		return "", fmt.Errorf("textparse: %s block is empty", strings.ToLower(tag))
	}
	return core, nil
}

// Code extracts a code fragment, preferring a ===== block and falling back
// to a markdown fence. Language markers and stray delimiter runs are removed.
func Code(text string) (string, error) {
	snippet, err := Block(text)
	if err != nil {
		start := strings.Index(text, "```")
		if start == -1 {
			return "", ErrNoCode
		}
		rest := text[start+3:]
		end := strings.Index(rest, "```")
		if end == -1 {
			return "", ErrNoCode
		}
		snippet = rest[:end]
	}
	snippet = strings.ReplaceAll(snippet, "```python", "")
	snippet = strings.ReplaceAll(snippet, "```", "")
	snippet = strings.TrimSpace(snippet)
	for strings.HasPrefix(snippet, BlockDelimiter) {
		snippet = strings.TrimSpace(strings.TrimPrefix(snippet, BlockDelimiter))
	}
	for strings.HasSuffix(snippet, BlockDelimiter) {
		snippet = strings.TrimSpace(strings.TrimSuffix(snippet, BlockDelimiter))
	}
	if snippet == "" {
		return "", ErrNoCode
	}
	return snippet, nil
}
