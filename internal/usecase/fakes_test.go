package usecases_test

import (
	"context"
	"sync"

	"agreements/internal/domain/entities"
)

// fakeImageOptimizer halves the payload when shrink is set
type fakeImageOptimizer struct {
	shrink bool
	calls  int
}

func (f *fakeImageOptimizer) Optimize(data []byte) entities.OptimizerOutcome {
	f.calls++
	if !f.shrink || len(data) < 2 {
		return entities.Unchanged(data, entities.ErrNoImprovement)
	}
	return entities.KeepSmaller(data, data[:len(data)/2])
}

type fakeStructuralOptimizer struct {
	output []byte
	calls  int
}

func (f *fakeStructuralOptimizer) Optimize(data []byte) entities.OptimizerOutcome {
	f.calls++
	if f.output == nil {
		return entities.Unchanged(data, entities.ErrBelowThreshold)
	}
	return entities.KeepSmaller(data, f.output)
}

type fakeAggressiveOptimizer struct {
	mu      sync.Mutex
	output  []byte
	presets []entities.Preset
}

func (f *fakeAggressiveOptimizer) Optimize(_ context.Context, data []byte, preset entities.Preset) entities.OptimizerOutcome {
	f.mu.Lock()
	f.presets = append(f.presets, preset)
	f.mu.Unlock()
	if f.output == nil {
		return entities.Unchanged(data, entities.ErrToolUnavailable)
	}
	return entities.KeepSmaller(data, f.output)
}

func (f *fakeAggressiveOptimizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.presets)
}

type fakeClassifier struct {
	calls int
}

func (f *fakeClassifier) Classify([]byte) entities.DocumentClassification {
	f.calls++
	return entities.DocumentClassification{IsScanLike: true, Images: 3}
}
