package compressors_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agreements/internal/domain/entities"
	"agreements/internal/infrastructure/compressors"
)

type staticLocator struct {
	path string
	err  error
}

func (l staticLocator) Locate() (string, error) {
	return l.path, l.err
}

// fakeRunner stands in for the Ghostscript process. It records every call
// and writes output to the path passed in -sOutputFile.
type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	output []byte
	err    error
	// Skip writing the output file
	noOutput bool
	// Block until the context is done
	block bool
	// Working directory seen during the call
	workDir string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if r.err != nil {
		return r.err
	}

	var outPath string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-sOutputFile=") {
			outPath = strings.TrimPrefix(arg, "-sOutputFile=")
		}
	}
	r.workDir = filepath.Dir(outPath)
	if r.noOutput {
		return nil
	}
	return os.WriteFile(outPath, r.output, 0o600)
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestGhostscript(runner *fakeRunner) *compressors.GhostscriptOptimizer {
	return compressors.NewGhostscriptOptimizer(staticLocator{path: "/usr/bin/gs"}, runner)
}

func TestGhostscriptOptimizer_SmallerOutputAccepted(t *testing.T) {
	input := fakePDF(400*1024, "")
	rebuilt := fakePDF(120*1024, "")
	runner := &fakeRunner{output: rebuilt}

	outcome := newTestGhostscript(runner).Optimize(context.Background(), input, entities.PresetEbook)

	require.True(t, outcome.Changed)
	assert.NoError(t, outcome.Reason)
	assert.Equal(t, rebuilt, outcome.Payload)
	require.Equal(t, 1, runner.callCount())
	assert.Equal(t, "/usr/bin/gs", runner.calls[0][0])

	_, err := os.Stat(runner.workDir)
	assert.True(t, os.IsNotExist(err), "working directory must be removed")
}

func TestGhostscriptOptimizer_SignedDocumentNeverRebuilt(t *testing.T) {
	input := fakePDF(400*1024, "<< /Type /Sig /ByteRange [0 10 20 30] >>")
	runner := &fakeRunner{output: []byte("%PDF-1.4")}

	outcome := newTestGhostscript(runner).Optimize(context.Background(), input, entities.PresetScreen)

	assert.False(t, outcome.Changed)
	assert.Equal(t, input, outcome.Payload)
	assert.True(t, errors.Is(outcome.Reason, entities.ErrSignedDocument))
	assert.Zero(t, runner.callCount())
}

func TestGhostscriptOptimizer_BelowThreshold(t *testing.T) {
	input := fakePDF(100*1024, "")
	runner := &fakeRunner{output: []byte("%PDF-1.4")}

	outcome := newTestGhostscript(runner).Optimize(context.Background(), input, entities.PresetEbook)

	assert.False(t, outcome.Changed)
	assert.True(t, errors.Is(outcome.Reason, entities.ErrBelowThreshold))
	assert.Zero(t, runner.callCount())
}

func TestGhostscriptOptimizer_LargerOutputRejected(t *testing.T) {
	input := fakePDF(300*1024, "")
	runner := &fakeRunner{output: fakePDF(301*1024, "")}

	outcome := newTestGhostscript(runner).Optimize(context.Background(), input, entities.PresetEbook)

	assert.False(t, outcome.Changed)
	assert.Equal(t, input, outcome.Payload)
	assert.True(t, errors.Is(outcome.Reason, entities.ErrNoImprovement))
}

func TestGhostscriptOptimizer_ToolFailures(t *testing.T) {
	input := fakePDF(300*1024, "")

	tests := []struct {
		name    string
		locator staticLocator
		runner  *fakeRunner
		wantErr error
	}{
		{
			name:    "tool not found",
			locator: staticLocator{err: entities.ErrToolUnavailable},
			runner:  &fakeRunner{},
			wantErr: entities.ErrToolUnavailable,
		},
		{
			name:    "locator returns a plain error",
			locator: staticLocator{err: errors.New("boom")},
			runner:  &fakeRunner{},
			wantErr: entities.ErrToolUnavailable,
		},
		{
			name:    "non-zero exit",
			locator: staticLocator{path: "gs"},
			runner:  &fakeRunner{err: errors.New("exit status 1")},
			wantErr: entities.ErrToolExecution,
		},
		{
			name:    "no output file",
			locator: staticLocator{path: "gs"},
			runner:  &fakeRunner{noOutput: true},
			wantErr: entities.ErrToolExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			optimizer := compressors.NewGhostscriptOptimizer(tt.locator, tt.runner)

			outcome := optimizer.Optimize(context.Background(), input, entities.PresetEbook)

			assert.False(t, outcome.Changed)
			assert.Equal(t, input, outcome.Payload)
			assert.True(t, errors.Is(outcome.Reason, tt.wantErr), "got %v", outcome.Reason)
		})
	}
}

func TestGhostscriptOptimizer_Timeout(t *testing.T) {
	input := fakePDF(300*1024, "")
	runner := &fakeRunner{block: true}

	optimizer := newTestGhostscript(runner)
	optimizer.Timeout = 50 * time.Millisecond

	start := time.Now()
	outcome := optimizer.Optimize(context.Background(), input, entities.PresetEbook)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, outcome.Changed)
	assert.True(t, errors.Is(outcome.Reason, entities.ErrToolExecution))
}

func TestGhostscriptOptimizer_PresetNormalized(t *testing.T) {
	input := fakePDF(300*1024, "")
	runner := &fakeRunner{output: []byte("%PDF-1.4\n")}

	newTestGhostscript(runner).Optimize(context.Background(), input, entities.Preset("  PRINTER "))
	newTestGhostscript(runner).Optimize(context.Background(), input, entities.Preset("bogus"))

	require.Equal(t, 2, runner.callCount())
	assert.Contains(t, runner.calls[0], "-dPDFSETTINGS=/printer")
	assert.Contains(t, runner.calls[1], "-dPDFSETTINGS=/ebook")
}

func TestRebuildArgs(t *testing.T) {
	args := compressors.RebuildArgs(entities.PresetScreen, "/tmp/in.pdf", "/tmp/out.pdf")

	assert.Equal(t, []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/screen",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=/tmp/out.pdf",
		"/tmp/in.pdf",
	}, args)
}

func TestGhostscriptOptimizer_RealLocatorWithoutTool(t *testing.T) {
	t.Setenv("GHOSTSCRIPT", "")
	t.Setenv("PATH", t.TempDir())

	optimizer := compressors.NewGhostscriptOptimizer(
		compressors.NewGhostscriptLocator(compressors.DefaultGhostscriptEnv),
		compressors.NewExecRunner(),
	)
	input := fakePDF(300*1024, "")

	outcome := optimizer.Optimize(context.Background(), input, entities.PresetEbook)

	assert.False(t, outcome.Changed)
	assert.True(t, bytes.Equal(input, outcome.Payload))
	assert.True(t, errors.Is(outcome.Reason, entities.ErrToolUnavailable))
}
