package controllers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
	usecases "agreements/internal/usecase"
)

// CLIController runs the batch and classification commands and prints
// their results
type CLIController struct {
	processFiles *usecases.ProcessFilesUseCase
	classifier   repositories.Classifier
	fileRepo     repositories.FileRepository
	out          io.Writer
}

// NewCLIController creates the CLI controller
func NewCLIController(
	processFiles *usecases.ProcessFilesUseCase,
	classifier repositories.Classifier,
	fileRepo repositories.FileRepository,
	out io.Writer,
) *CLIController {
	return &CLIController{
		processFiles: processFiles,
		classifier:   classifier,
		fileRepo:     fileRepo,
		out:          out,
	}
}

// HandleCompress compresses a file or a directory tree
func (c *CLIController) HandleCompress(ctx context.Context, opts usecases.BatchOptions) error {
	fmt.Fprintf(c.out, "Compressing %s\n", opts.Source)

	c.processFiles.SetProgressReporter(func(status entities.ProcessingStatus) {
		if status.Phase != entities.PhaseCompressing || status.ProcessedFiles == 0 {
			return
		}
		line := fmt.Sprintf("[%d/%d] %5.1f%% %s", status.ProcessedFiles, status.TotalFiles, status.Progress, status.CurrentFile)
		if r := status.LastResult; r != nil && r.FileName == status.CurrentFile {
			line += fmt.Sprintf(" %s saved %.1f%%", r.Algorithm, r.SavingRatio*100)
		}
		if status.EstimatedTime > 0 {
			line += " eta " + status.EstimatedTime.Round(time.Second).String()
		}
		fmt.Fprintln(c.out, line)
	})

	status, err := c.processFiles.Execute(ctx, opts)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	c.showSummary(status, opts)
	if status.FailedFiles > 0 {
		return fmt.Errorf("%d of %d files failed, last error: %w", status.FailedFiles, status.TotalFiles, status.Error)
	}
	return nil
}

// HandleClassify prints the scan classification of a PDF
func (c *CLIController) HandleClassify(path string) error {
	if !entities.IsPDFFile(path) {
		return fmt.Errorf("%w: %s", entities.ErrUnsupportedFileType, path)
	}
	data, err := c.fileRepo.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	result := c.classifier.Classify(data)
	kind := "digital"
	if result.IsScanLike {
		kind = "scan-like"
	}
	fmt.Fprintf(c.out, "%s: %s (images: %d, text operators: %d)\n", filepath.Base(path), kind, result.Images, result.TextOps)
	return nil
}

func (c *CLIController) showSummary(status *entities.ProcessingStatus, opts usecases.BatchOptions) {
	fmt.Fprintf(c.out, "\nResults:\n")
	fmt.Fprintf(c.out, "  Files:      %d\n", status.TotalFiles)
	fmt.Fprintf(c.out, "  Compressed: %d\n", status.SuccessfulFiles-status.UnchangedFiles)
	fmt.Fprintf(c.out, "  Unchanged:  %d\n", status.UnchangedFiles)
	fmt.Fprintf(c.out, "  Failed:     %d\n", status.FailedFiles)
	fmt.Fprintf(c.out, "  Size:       %.2f MB -> %.2f MB (saved %.2f MB, %.1f%%)\n",
		float64(status.TotalOriginalSize)/1024/1024,
		float64(status.TotalOptimizedSize)/1024/1024,
		float64(status.TotalSavedSpace)/1024/1024,
		status.AverageSaving)
	fmt.Fprintf(c.out, "  Time:       %s\n", status.FormatElapsedTime())

	if opts.Replace {
		fmt.Fprintln(c.out, "Originals that got smaller were replaced.")
	} else {
		fmt.Fprintf(c.out, "Output written to %s\n", opts.Target)
	}
}
