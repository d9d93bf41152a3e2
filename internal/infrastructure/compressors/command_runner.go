package compressors

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"agreements/internal/domain/entities"
)

// maxToolOutput caps how much tool output is kept in an error message
const maxToolOutput = 2048

// ExecRunner runs commands as child processes
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args and waits for it. The process is killed when
// ctx is done.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		text := strings.TrimSpace(string(output))
		if len(text) > maxToolOutput {
			text = text[:maxToolOutput]
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s: %v", entities.ErrToolExecution, name, ctxErr)
		}
		return fmt.Errorf("%w: %s: %v, output: %s", entities.ErrToolExecution, name, err, text)
	}
	return nil
}
