package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
)

// BatchOptions selects the files of a batch run and where results go
type BatchOptions struct {
	// A single file or a directory scanned recursively
	Source string
	// Output directory, the source tree layout is kept below it
	Target string
	// Overwrite originals that got smaller instead of writing to Target
	Replace bool
	Workers int
}

// ProcessFilesUseCase runs the compression engine over local files with a
// pool of workers
type ProcessFilesUseCase struct {
	engine           Compressor
	fileRepo         repositories.FileRepository
	logger           repositories.Logger
	progressReporter func(entities.ProcessingStatus)
}

// NewProcessFilesUseCase creates the batch use case
func NewProcessFilesUseCase(engine Compressor, fileRepo repositories.FileRepository, logger repositories.Logger) *ProcessFilesUseCase {
	return &ProcessFilesUseCase{
		engine:   engine,
		fileRepo: fileRepo,
		logger:   logger,
	}
}

// SetProgressReporter sets a callback receiving a copy of the status after every file
func (uc *ProcessFilesUseCase) SetProgressReporter(reporter func(entities.ProcessingStatus)) {
	uc.progressReporter = reporter
}

func (uc *ProcessFilesUseCase) reportProgress(status *entities.ProcessingStatus) {
	if uc.progressReporter != nil {
		uc.progressReporter(*status)
	}
}

type fileOutcome struct {
	path   string
	result *entities.CompressionResult
	err    error
}

// Execute processes every supported file under opts.Source. Per-file read or
// write failures are counted in the returned status and do not stop the run.
func (uc *ProcessFilesUseCase) Execute(ctx context.Context, opts BatchOptions) (*entities.ProcessingStatus, error) {
	status := entities.NewProcessingStatus(0)
	status.SetPhase(entities.PhaseInitializing, "initializing")
	uc.reportProgress(status)

	if !uc.fileRepo.FileExists(opts.Source) {
		err := fmt.Errorf("%w: %s", entities.ErrFileNotFound, opts.Source)
		status.Fail(err)
		return status, err
	}
	if !opts.Replace && opts.Target == "" {
		err := fmt.Errorf("%w: output directory is required unless originals are replaced", entities.ErrInvalidRequest)
		status.Fail(err)
		return status, err
	}

	status.SetPhase(entities.PhaseScanning, "scanning")
	uc.reportProgress(status)

	files, root, err := uc.collect(opts.Source)
	if err != nil {
		status.Fail(err)
		return status, err
	}
	if len(files) == 0 {
		err := fmt.Errorf("%w: %s", entities.ErrNoFilesFound, opts.Source)
		status.Fail(err)
		return status, err
	}

	status.TotalFiles = len(files)
	uc.logInfo("found %d files in %s", len(files), opts.Source)

	if !opts.Replace {
		if err := uc.fileRepo.CreateDirectory(opts.Target); err != nil {
			err = fmt.Errorf("create output directory: %w", err)
			status.Fail(err)
			return status, err
		}
	}

	status.SetPhase(entities.PhaseCompressing, "compressing")
	uc.reportProgress(status)

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan string, len(files))
	results := make(chan fileOutcome, len(files))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go uc.worker(ctx, jobs, results, &wg, root, opts)
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		name := filepath.Base(outcome.path)
		if outcome.err != nil {
			status.AddFailure(outcome.path, outcome.err)
			uc.logError("[%d/%d] %s: %v", status.ProcessedFiles, status.TotalFiles, name, outcome.err)
		} else {
			status.AddResult(outcome.result)
			r := outcome.result
			uc.logSuccess("[%d/%d] %s: %s %.2f MB -> %.2f MB (%.1f%%)",
				status.ProcessedFiles, status.TotalFiles, name, r.Algorithm,
				float64(r.OriginalSize)/1024/1024, float64(r.OptimizedSize)/1024/1024, r.SavingRatio*100)
		}
		uc.reportProgress(status)
	}

	status.Complete()
	uc.reportProgress(status)
	uc.logInfo("done in %s: %d ok, %d failed, %d unchanged, saved %.2f MB",
		status.FormatElapsedTime(), status.SuccessfulFiles, status.FailedFiles, status.UnchangedFiles,
		float64(status.TotalSavedSpace)/1024/1024)

	return status, nil
}

// collect returns the files to process and the directory their output paths
// are made relative to
func (uc *ProcessFilesUseCase) collect(source string) ([]string, string, error) {
	if !uc.fileRepo.IsDirectory(source) {
		if !entities.IsSupportedFile(source) {
			return nil, "", fmt.Errorf("%w: %s", entities.ErrUnsupportedFileType, source)
		}
		return []string{source}, filepath.Dir(source), nil
	}

	files, err := uc.fileRepo.ListSupportedFiles(source)
	if err != nil {
		return nil, "", fmt.Errorf("list files: %w", err)
	}
	return files, source, nil
}

func (uc *ProcessFilesUseCase) worker(
	ctx context.Context,
	jobs <-chan string,
	results chan<- fileOutcome,
	wg *sync.WaitGroup,
	root string,
	opts BatchOptions,
) {
	defer wg.Done()

	for inputFile := range jobs {
		if err := ctx.Err(); err != nil {
			results <- fileOutcome{path: inputFile, err: err}
			continue
		}

		data, err := uc.fileRepo.ReadFile(inputFile)
		if err != nil {
			results <- fileOutcome{path: inputFile, err: fmt.Errorf("read: %w", err)}
			continue
		}

		result := uc.engine.Compress(ctx, filepath.Base(inputFile), data)

		outputFile := uc.outputPath(inputFile, root, opts)
		if opts.Replace && !result.IsEffective() {
			results <- fileOutcome{path: inputFile, result: result}
			continue
		}
		if err := uc.fileRepo.WriteFile(outputFile, result.Payload); err != nil {
			results <- fileOutcome{path: inputFile, err: fmt.Errorf("write %s: %w", outputFile, err)}
			continue
		}

		results <- fileOutcome{path: inputFile, result: result}
	}
}

// outputPath mirrors the source layout below the target directory
func (uc *ProcessFilesUseCase) outputPath(inputFile, root string, opts BatchOptions) string {
	if opts.Replace {
		return inputFile
	}
	rel, err := filepath.Rel(root, inputFile)
	if err != nil {
		rel = filepath.Base(inputFile)
	}
	return filepath.Join(opts.Target, rel)
}

func (uc *ProcessFilesUseCase) logInfo(format string, args ...interface{}) {
	if uc.logger != nil {
		uc.logger.Info(format, args...)
	}
}

func (uc *ProcessFilesUseCase) logSuccess(format string, args ...interface{}) {
	if uc.logger != nil {
		uc.logger.Success(format, args...)
	}
}

func (uc *ProcessFilesUseCase) logError(format string, args ...interface{}) {
	if uc.logger != nil {
		uc.logger.Error(format, args...)
	}
}
