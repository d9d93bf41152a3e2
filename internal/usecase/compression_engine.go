package usecases

import (
	"bytes"
	"context"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
)

// CompressionEngine picks an optimization strategy from the file extension
// and runs it. It never fails: when no optimizer helps, the original bytes
// are returned. The engine holds no mutable state and is safe for concurrent use.
type CompressionEngine struct {
	image      repositories.ImageOptimizer
	structural repositories.StructuralOptimizer
	aggressive repositories.AggressiveOptimizer
	classifier repositories.Classifier
	preset     entities.Preset
	logger     repositories.Logger
}

// NewCompressionEngine creates an engine using the ebook preset for rebuilds
func NewCompressionEngine(
	image repositories.ImageOptimizer,
	structural repositories.StructuralOptimizer,
	aggressive repositories.AggressiveOptimizer,
	logger repositories.Logger,
) *CompressionEngine {
	return &CompressionEngine{
		image:      image,
		structural: structural,
		aggressive: aggressive,
		preset:     entities.PresetEbook,
		logger:     logger,
	}
}

// WithPreset sets the preset passed to the aggressive optimizer
func (e *CompressionEngine) WithPreset(preset entities.Preset) *CompressionEngine {
	e.preset = entities.NormalizePreset(string(preset))
	return e
}

// WithClassifier enables logging of the scan classification of every PDF.
// The classification does not influence dispatch.
func (e *CompressionEngine) WithClassifier(classifier repositories.Classifier) *CompressionEngine {
	e.classifier = classifier
	return e
}

// Compress optimizes one file
func (e *CompressionEngine) Compress(ctx context.Context, filename string, data []byte) *entities.CompressionResult {
	var (
		algorithm entities.Algorithm
		outcome   entities.OptimizerOutcome
	)

	switch {
	case entities.IsJPEGFile(filename):
		algorithm = entities.AlgorithmImageRequantize
		outcome = e.image.Optimize(data)
		e.logOutcome(filename, "image", outcome)

	case entities.IsPDFFile(filename):
		e.logClassification(filename, data)
		algorithm, outcome = e.compressDocument(ctx, filename, data)

	default:
		algorithm = entities.AlgorithmNone
		outcome = entities.Unchanged(data, nil)
		e.logDebug("%s: no optimizer for this file type", filename)
	}

	result := entities.NewCompressionResult(filename, data, outcome.Payload, algorithm, outcome.Changed)
	e.logDebug("%s: %s %d -> %d bytes", filename, algorithm, result.OriginalSize, result.OptimizedSize)
	return result
}

// compressDocument tries the aggressive rebuild first and keeps it whenever
// its bytes differ from the input; otherwise the structural rewrite runs.
func (e *CompressionEngine) compressDocument(ctx context.Context, filename string, data []byte) (entities.Algorithm, entities.OptimizerOutcome) {
	if e.aggressive != nil {
		outcome := e.aggressive.Optimize(ctx, data, e.preset)
		e.logOutcome(filename, "aggressive rebuild", outcome)
		if !bytes.Equal(outcome.Payload, data) {
			outcome.Changed = true
			return entities.AlgorithmDocAggressiveRebuild, outcome
		}
	}

	if e.structural == nil {
		return entities.AlgorithmDocStructuralRecompress, entities.Unchanged(data, nil)
	}
	outcome := e.structural.Optimize(data)
	e.logOutcome(filename, "structural rewrite", outcome)
	return entities.AlgorithmDocStructuralRecompress, outcome
}

func (e *CompressionEngine) logClassification(filename string, data []byte) {
	if e.classifier == nil || e.logger == nil {
		return
	}
	c := e.classifier.Classify(data)
	e.logger.Debug("%s: scan-like=%t images=%d text-ops=%d", filename, c.IsScanLike, c.Images, c.TextOps)
}

func (e *CompressionEngine) logOutcome(filename, stage string, outcome entities.OptimizerOutcome) {
	if e.logger == nil {
		return
	}
	if outcome.Changed {
		e.logger.Debug("%s: %s produced %d bytes", filename, stage, len(outcome.Payload))
		return
	}
	if outcome.Reason != nil {
		e.logger.Debug("%s: %s skipped: %v", filename, stage, outcome.Reason)
	}
}

func (e *CompressionEngine) logDebug(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(format, args...)
	}
}
