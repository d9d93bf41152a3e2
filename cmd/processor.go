package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
	"agreements/internal/infrastructure/compressors"
	"agreements/internal/infrastructure/encoding"
	"agreements/internal/infrastructure/logging"
	infraRepos "agreements/internal/infrastructure/repositories"
	"agreements/internal/infrastructure/storage"
	"agreements/internal/interface/controllers"
	usecases "agreements/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// ApplicationProcessor wires the application and runs its commands
type ApplicationProcessor struct {
	config *entities.Config
	logger *logging.Logger

	// Graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplicationProcessor creates a processor for the loaded configuration
func NewApplicationProcessor(config *entities.Config, logger *logging.Logger) *ApplicationProcessor {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	return &ApplicationProcessor{
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Serve runs the HTTP API until ctx is cancelled or a signal arrives
func (p *ApplicationProcessor) Serve(ctx context.Context) error {
	p.wg.Add(1)
	defer p.wg.Done()

	ctx, cancel := p.mergeContext(ctx)
	defer cancel()

	blobStorage, err := storage.New(p.config.Storage)
	if err != nil {
		return err
	}
	codec := encoding.NewAgreementCodec()
	engine := p.buildEngine()

	serverCfg := p.config.Server
	httpLogger := p.logger.With("component", "http")
	controller := controllers.NewHTTPController(
		usecases.NewUploadAgreementUseCase(engine, blobStorage, codec, httpLogger, p.config.Storage.Bucket, p.config.Storage.Disk),
		usecases.NewListAgreementsUseCase(blobStorage, p.config.Storage.Bucket),
		usecases.NewDownloadAgreementUseCase(blobStorage, codec, p.config.Storage.Bucket),
		httpLogger,
		controllers.HTTPOptions{
			MaxUploadBytes:            serverCfg.MaxUploadBytes(),
			MaxConcurrentCompressions: serverCfg.MaxConcurrentCompressions,
			RateLimitPerSecond:        serverCfg.RateLimitPerSecond,
			RateLimitBurst:            serverCfg.RateLimitBurst,
		},
	)

	if err := usecases.EnsureBucket(ctx, blobStorage, p.config.Storage.Bucket, p.logger); err != nil {
		p.logger.Warning("bucket %s is not ready yet: %v", p.config.Storage.Bucket, err)
	}

	server := &http.Server{
		Addr:              serverCfg.Address,
		Handler:           controller.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(serverCfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(serverCfg.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		p.logger.Info("listening on %s (storage: %s, bucket: %s)", serverCfg.Address, p.config.Storage.Backend, p.config.Storage.Bucket)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	p.logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Compress runs batch mode over local files
func (p *ApplicationProcessor) Compress(ctx context.Context, opts usecases.BatchOptions, out io.Writer) error {
	p.wg.Add(1)
	defer p.wg.Done()

	ctx, cancel := p.mergeContext(ctx)
	defer cancel()

	fileRepo := infraRepos.NewFileSystemRepository()
	cli := controllers.NewCLIController(
		usecases.NewProcessFilesUseCase(p.buildEngine(), fileRepo, p.logger.With("component", "batch")),
		p.buildClassifier(),
		fileRepo,
		out,
	)
	return cli.HandleCompress(ctx, opts)
}

// Classify prints the scan classification of one PDF
func (p *ApplicationProcessor) Classify(path string, out io.Writer) error {
	fileRepo := infraRepos.NewFileSystemRepository()
	cli := controllers.NewCLIController(nil, p.buildClassifier(), fileRepo, out)
	return cli.HandleClassify(path)
}

// Shutdown waits for running commands and releases the logger
func (p *ApplicationProcessor) Shutdown() {
	p.cancel()
	p.wg.Wait()
	if err := p.logger.Close(); err != nil {
		fmt.Printf("close logger: %v\n", err)
	}
}

// buildEngine assembles the compression engine from the configuration
func (p *ApplicationProcessor) buildEngine() *usecases.CompressionEngine {
	cfg := p.config.Compression

	image := compressors.NewJPEGOptimizer()
	image.Quality = cfg.JPEGQuality
	image.MinSizeKB = cfg.ImageMinSizeKB
	image.MaxDimension = cfg.ImageMaxDimension

	var structural repositories.StructuralOptimizer
	switch cfg.StructuralBackend {
	case entities.StructuralBackendUniPDF:
		unipdf := compressors.NewUniPDFOptimizer(cfg.UniPDFLicenseKey)
		unipdf.MinSizeKB = cfg.PDFMinSizeKB
		structural = unipdf
	default:
		pdfcpu := compressors.NewPDFCPUOptimizer()
		pdfcpu.MinSizeKB = cfg.PDFMinSizeKB
		structural = pdfcpu
	}

	aggressive := compressors.NewGhostscriptOptimizer(
		compressors.NewGhostscriptLocator(cfg.GhostscriptEnv),
		compressors.NewExecRunner(),
	)
	aggressive.MinSizeKB = cfg.PDFMinSizeKB
	aggressive.Timeout = cfg.RebuildTimeout()

	engine := usecases.NewCompressionEngine(image, structural, aggressive, p.logger.With("component", "engine")).
		WithPreset(entities.Preset(cfg.PDFPreset))
	if cfg.ClassifyDocuments {
		engine = engine.WithClassifier(p.buildClassifier())
	}
	return engine
}

func (p *ApplicationProcessor) buildClassifier() *compressors.PDFClassifier {
	classifier := compressors.NewPDFClassifier()
	if v := p.config.Compression.ScanImageThreshold; v > 0 {
		classifier.ImageThreshold = v
	}
	if v := p.config.Compression.ScanTextOpsThreshold; v > 0 {
		classifier.TextOpsThreshold = v
	}
	return classifier
}

// mergeContext returns a context cancelled when either ctx or the
// processor's signal context is done
func (p *ApplicationProcessor) mergeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.ctx, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
