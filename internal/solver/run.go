package solver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultRunTimeout bounds a single solver run.
const DefaultRunTimeout = 2 * time.Minute

// RunResult captures one execution of the generated script.
type RunResult struct {
	Returncode int    `json:"returncode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
}

// Succeeded reports whether the script exited cleanly.
func (r RunResult) Succeeded() bool { return r.Returncode == 0 }

// Run executes the generated script with the given python interpreter in the
// script's directory. A zero timeout falls back to DefaultRunTimeout. The
// result is returned even when the script exits non-zero; only launch
// failures surface as errors.
func Run(ctx context.Context, scriptPath, python string, timeout time.Duration) (RunResult, error) {
	if python == "" {
		python = "python"
	}
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return RunResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, python, filepath.Base(scriptPath))
	cmd.Dir = filepath.Dir(scriptPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.Returncode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, nil
		}
		return RunResult{}, err
	}
	return result, nil
}
