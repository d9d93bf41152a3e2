package usecases_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agreements/internal/domain/entities"
	"agreements/internal/infrastructure/logging"
	"agreements/internal/infrastructure/repositories"
	usecases "agreements/internal/usecase"
)

func writeFiles(t *testing.T, root string, files map[string]int) {
	t.Helper()
	for name, size := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	}
}

func newBatch() *usecases.ProcessFilesUseCase {
	engine := usecases.NewCompressionEngine(
		&fakeImageOptimizer{shrink: true},
		&fakeStructuralOptimizer{},
		&fakeAggressiveOptimizer{},
		nil,
	)
	return usecases.NewProcessFilesUseCase(engine, repositories.NewFileSystemRepository(), logging.NewNop())
}

func TestProcessFiles_DirectoryToTarget(t *testing.T) {
	source := t.TempDir()
	target := filepath.Join(t.TempDir(), "out")
	writeFiles(t, source, map[string]int{
		"a.jpg":            1000,
		"docs/b.pdf":       300,
		"docs/deep/c.jpeg": 200,
		"ignored.txt":      50,
	})

	var updates int
	batch := newBatch()
	batch.SetProgressReporter(func(entities.ProcessingStatus) { updates++ })

	status, err := batch.Execute(context.Background(), usecases.BatchOptions{Source: source, Target: target, Workers: 3})
	require.NoError(t, err)

	assert.True(t, status.IsComplete)
	assert.Equal(t, 3, status.TotalFiles)
	assert.Equal(t, 3, status.SuccessfulFiles)
	assert.Equal(t, 1, status.UnchangedFiles)
	assert.Equal(t, uint64(1500), status.TotalOriginalSize)
	assert.Equal(t, uint64(900), status.TotalOptimizedSize)
	assert.Greater(t, updates, 3)

	for name, size := range map[string]int{"a.jpg": 500, "docs/b.pdf": 300, "docs/deep/c.jpeg": 100} {
		info, err := os.Stat(filepath.Join(target, name))
		require.NoError(t, err, name)
		assert.Equal(t, int64(size), info.Size(), name)
	}
	_, err = os.Stat(filepath.Join(target, "ignored.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessFiles_ReplaceOnlyWhenSmaller(t *testing.T) {
	source := t.TempDir()
	writeFiles(t, source, map[string]int{"a.jpg": 1000, "b.pdf": 400})

	status, err := newBatch().Execute(context.Background(), usecases.BatchOptions{Source: source, Replace: true})
	require.NoError(t, err)
	assert.Equal(t, 2, status.SuccessfulFiles)

	info, err := os.Stat(filepath.Join(source, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, int64(500), info.Size())

	info, err = os.Stat(filepath.Join(source, "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, int64(400), info.Size())
}

func TestProcessFiles_SingleFile(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFiles(t, source, map[string]int{"scan.jpg": 800})

	status, err := newBatch().Execute(context.Background(), usecases.BatchOptions{
		Source: filepath.Join(source, "scan.jpg"),
		Target: target,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalFiles)

	info, err := os.Stat(filepath.Join(target, "scan.jpg"))
	require.NoError(t, err)
	assert.Equal(t, int64(400), info.Size())
}

func TestProcessFiles_Errors(t *testing.T) {
	empty := t.TempDir()
	writeFiles(t, empty, map[string]int{"readme.md": 10})

	tests := []struct {
		name    string
		opts    usecases.BatchOptions
		wantErr error
	}{
		{"missing source", usecases.BatchOptions{Source: filepath.Join(empty, "nope"), Target: t.TempDir()}, entities.ErrFileNotFound},
		{"no supported files", usecases.BatchOptions{Source: empty, Target: t.TempDir()}, entities.ErrNoFilesFound},
		{"unsupported single file", usecases.BatchOptions{Source: filepath.Join(empty, "readme.md"), Target: t.TempDir()}, entities.ErrUnsupportedFileType},
		{"no target", usecases.BatchOptions{Source: empty}, entities.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := newBatch().Execute(context.Background(), tt.opts)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, entities.PhaseFailed, status.Phase)
		})
	}
}

func TestProcessFiles_CancelledContext(t *testing.T) {
	source := t.TempDir()
	writeFiles(t, source, map[string]int{"a.jpg": 100, "b.jpg": 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := newBatch().Execute(ctx, usecases.BatchOptions{Source: source, Target: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 2, status.FailedFiles)
}
