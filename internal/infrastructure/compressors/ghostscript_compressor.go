package compressors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
)

// GhostscriptOptimizer rebuilds a PDF through Ghostscript's pdfwrite device.
// The rebuild may rasterize and downsample content, so signed documents are
// never passed to it.
type GhostscriptOptimizer struct {
	MinSizeKB int
	// Zero means the rebuild runs until the caller's context is done
	Timeout time.Duration
	// Parent directory for the per-call working directory, empty for os.TempDir
	TempDir string

	locator repositories.ToolLocator
	runner  repositories.CommandRunner
}

// NewGhostscriptOptimizer creates an aggressive optimizer
func NewGhostscriptOptimizer(locator repositories.ToolLocator, runner repositories.CommandRunner) *GhostscriptOptimizer {
	return &GhostscriptOptimizer{
		MinSizeKB: DefaultPDFMinSizeKB,
		locator:   locator,
		runner:    runner,
	}
}

// Optimize returns the rebuilt document when the tool succeeded and its output
// is strictly smaller than data.
func (g *GhostscriptOptimizer) Optimize(ctx context.Context, data []byte, preset entities.Preset) entities.OptimizerOutcome {
	if len(data) < g.MinSizeKB*1024 {
		return entities.Unchanged(data, entities.ErrBelowThreshold)
	}

	gs, err := g.locator.Locate()
	if err != nil {
		if !errors.Is(err, entities.ErrToolUnavailable) {
			err = fmt.Errorf("%w: %v", entities.ErrToolUnavailable, err)
		}
		return entities.Unchanged(data, err)
	}

	if IsDigitallySigned(data) {
		return entities.Unchanged(data, entities.ErrSignedDocument)
	}

	rebuilt, err := g.rebuild(ctx, gs, data, entities.NormalizePreset(string(preset)))
	if err != nil {
		return entities.Unchanged(data, err)
	}

	return entities.KeepSmaller(data, rebuilt)
}

// rebuild runs the tool inside a private working directory that is removed
// before returning.
func (g *GhostscriptOptimizer) rebuild(ctx context.Context, gs string, data []byte, preset entities.Preset) ([]byte, error) {
	workDir, err := os.MkdirTemp(g.TempDir, "pdf-rebuild-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create working directory: %v", entities.ErrToolExecution, err)
	}
	defer os.RemoveAll(workDir)

	inPath := filepath.Join(workDir, "in.pdf")
	outPath := filepath.Join(workDir, "out.pdf")

	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write input: %v", entities.ErrToolExecution, err)
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	if err := g.runner.Run(ctx, gs, RebuildArgs(preset, inPath, outPath)...); err != nil {
		if !errors.Is(err, entities.ErrToolExecution) {
			err = fmt.Errorf("%w: %v", entities.ErrToolExecution, err)
		}
		return nil, err
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", entities.ErrToolExecution, err)
	}
	return out, nil
}

// RebuildArgs returns the Ghostscript argument list for a rebuild
func RebuildArgs(preset entities.Preset, inPath, outPath string) []string {
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=" + preset.PDFSettings(),
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=" + outPath,
		inPath,
	}
}
