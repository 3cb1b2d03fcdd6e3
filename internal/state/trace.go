package state

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// TraceSaver implements llm.PromptHook to persist prompts and raw responses
// per stage, appending to trace/<stage>.txt inside the problem directory.
type TraceSaver struct{ Dir string }

// NewTraceSaver writes traces under the store's problem directory.
func NewTraceSaver(s *Store) *TraceSaver {
	return &TraceSaver{Dir: s.Root()}
}

// Before appends the prompt and input JSON for one model call.
func (t *TraceSaver) Before(ctx context.Context, stage, prompt string, input any) {
	if stage == "" {
		stage = "unknown"
	}
	var buf bytes.Buffer
	buf.WriteString("==== ")
	buf.WriteString(time.Now().Format(time.RFC3339))
	buf.WriteString(" ====\n")
	buf.WriteString(prompt)
	buf.WriteString("\n\n[INPUT JSON]\n")
	jb, _ := json.MarshalIndent(input, "", "  ")
	buf.Write(jb)
	buf.WriteString("\n\n")
	t.append(stage, buf.Bytes())
}

// After appends the raw model response, or the error when the call failed.
func (t *TraceSaver) After(ctx context.Context, stage, response string, err error) {
	if stage == "" {
		stage = "unknown"
	}
	var buf bytes.Buffer
	buf.WriteString("[RESPONSE]\n")
	if err != nil {
		buf.WriteString("ERROR: " + err.Error() + "\n\n")
	} else {
		buf.WriteString(response)
		buf.WriteString("\n\n")
	}
	t.append(stage, buf.Bytes())
}

func (t *TraceSaver) append(stage string, b []byte) {
	dir := filepath.Join(t.Dir, "trace")
	_ = os.MkdirAll(dir, 0o755)
	f, _ := os.OpenFile(filepath.Join(dir, stage+".txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if f != nil {
		_, _ = f.Write(b)
		_ = f.Close()
	}
}
