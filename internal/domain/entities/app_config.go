package entities

import (
	"time"
)

// Config is the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Compression CompressionConfig `yaml:"compression"`
	Processing  ProcessingConfig  `yaml:"processing"`
	Output      OutputConfig      `yaml:"output"`
}

// ServerConfig holds the HTTP upload boundary settings
type ServerConfig struct {
	Address             string `yaml:"address"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	MaxUploadMB         int    `yaml:"max_upload_mb"`
	// Per client IP
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
	// Upper bound of compressions running at the same time
	MaxConcurrentCompressions int64 `yaml:"max_concurrent_compressions"`
}

// StorageConfig holds the blob store settings
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Disk      string `yaml:"disk"`
}

// CompressionConfig holds the optimizer settings
type CompressionConfig struct {
	JPEGQuality       int    `yaml:"jpeg_quality"`
	ImageMinSizeKB    int    `yaml:"image_min_size_kb"`
	ImageMaxDimension int    `yaml:"image_max_dimension"`
	PDFMinSizeKB      int    `yaml:"pdf_min_size_kb"`
	PDFPreset         string `yaml:"pdf_preset"`
	StructuralBackend string `yaml:"structural_backend"`
	UniPDFLicenseKey  string `yaml:"unipdf_license_key"`
	// Name of the environment variable holding the Ghostscript path
	GhostscriptEnv        string `yaml:"ghostscript_env"`
	RebuildTimeoutSeconds int    `yaml:"rebuild_timeout_seconds"`
	ClassifyDocuments     bool   `yaml:"classify_documents"`
	ScanImageThreshold    int    `yaml:"scan_image_threshold"`
	ScanTextOpsThreshold  int    `yaml:"scan_text_ops_threshold"`
}

// ProcessingConfig holds batch mode settings
type ProcessingConfig struct {
	ParallelWorkers int `yaml:"parallel_workers"`
}

// OutputConfig holds logging settings
type OutputConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	LogToFile   bool   `yaml:"log_to_file"`
	LogFileName string `yaml:"log_file_name"`
}

// Structural backends
const (
	StructuralBackendPDFCPU = "pdfcpu"
	StructuralBackendUniPDF = "unipdf"
)

// Storage backends
const (
	StorageBackendMinIO  = "minio"
	StorageBackendMemory = "memory"
)

// Validate checks the optimizer settings
func (c *CompressionConfig) Validate() error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return ErrInvalidJPEGQuality
	}
	if c.ImageMinSizeKB < 0 || c.PDFMinSizeKB < 0 || c.ImageMaxDimension < 0 || c.RebuildTimeoutSeconds < 0 {
		return ErrInvalidThreshold
	}
	switch c.StructuralBackend {
	case StructuralBackendPDFCPU, StructuralBackendUniPDF:
	default:
		return ErrInvalidStructuralMode
	}
	return nil
}

// RebuildTimeout returns the aggressive rebuild deadline, zero means none
func (c *CompressionConfig) RebuildTimeout() time.Duration {
	return time.Duration(c.RebuildTimeoutSeconds) * time.Second
}

// Validate checks the storage settings
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case StorageBackendMinIO, StorageBackendMemory:
	default:
		return ErrInvalidStorageBackend
	}
	if c.Bucket == "" {
		return ErrInvalidBucket
	}
	return nil
}

// Validate checks the server settings
func (c *ServerConfig) Validate() error {
	if c.MaxUploadMB <= 0 {
		return ErrInvalidUploadLimit
	}
	return nil
}

// MaxUploadBytes returns the upload body limit in bytes
func (c *ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Compression.Validate(); err != nil {
		return err
	}
	if c.Processing.ParallelWorkers <= 0 {
		return ErrInvalidWorkers
	}
	return nil
}

// ProcessingStatus tracks a batch run
type ProcessingStatus struct {
	Phase ProcessingPhase

	CurrentFile string

	TotalFiles      int
	ProcessedFiles  int
	SuccessfulFiles int
	FailedFiles     int
	UnchangedFiles  int

	Progress float64

	TotalOriginalSize  uint64
	TotalOptimizedSize uint64
	TotalSavedSpace    uint64
	AverageSaving      float64

	LastResult *CompressionResult

	StartTime     time.Time
	ElapsedTime   time.Duration
	EstimatedTime time.Duration

	IsComplete bool
	Error      error

	Message string
}

// ProcessingPhase is a stage of a batch run
type ProcessingPhase int

const (
	PhaseInitializing ProcessingPhase = iota
	PhaseScanning
	PhaseCompressing
	PhaseCompleted
	PhaseFailed
)

// NewProcessingStatus creates a status for totalFiles files
func NewProcessingStatus(totalFiles int) *ProcessingStatus {
	return &ProcessingStatus{
		Phase:      PhaseInitializing,
		TotalFiles: totalFiles,
		StartTime:  time.Now(),
	}
}

// UpdateProgress recomputes progress and the remaining time estimate
func (ps *ProcessingStatus) UpdateProgress() {
	if ps.TotalFiles > 0 {
		ps.Progress = float64(ps.ProcessedFiles) / float64(ps.TotalFiles) * 100
	}

	ps.ElapsedTime = time.Since(ps.StartTime)

	if ps.ProcessedFiles > 0 && ps.ProcessedFiles < ps.TotalFiles {
		avgTimePerFile := ps.ElapsedTime / time.Duration(ps.ProcessedFiles)
		remainingFiles := ps.TotalFiles - ps.ProcessedFiles
		ps.EstimatedTime = avgTimePerFile * time.Duration(remainingFiles)
	}
}

// AddResult records a processed file
func (ps *ProcessingStatus) AddResult(result *CompressionResult) {
	ps.ProcessedFiles++
	ps.SuccessfulFiles++
	ps.LastResult = result
	ps.CurrentFile = result.FileName

	if !result.IsEffective() {
		ps.UnchangedFiles++
	}

	ps.TotalOriginalSize += result.OriginalSize
	ps.TotalOptimizedSize += result.OptimizedSize
	ps.TotalSavedSpace += result.SavedBytes()

	if ps.TotalOriginalSize > 0 {
		ps.AverageSaving = SavingRatio(ps.TotalOriginalSize, ps.TotalOptimizedSize) * 100
	}

	ps.UpdateProgress()
}

// AddFailure records a file that could not be read or written
func (ps *ProcessingStatus) AddFailure(filePath string, err error) {
	ps.ProcessedFiles++
	ps.FailedFiles++
	ps.CurrentFile = filePath
	ps.Error = err
	ps.UpdateProgress()
}

// SetPhase sets the current phase
func (ps *ProcessingStatus) SetPhase(phase ProcessingPhase, message string) {
	ps.Phase = phase
	ps.Message = message
}

// Complete marks the run as finished
func (ps *ProcessingStatus) Complete() {
	ps.IsComplete = true
	ps.Phase = PhaseCompleted
	ps.Progress = 100
	ps.ElapsedTime = time.Since(ps.StartTime)
	ps.EstimatedTime = 0
}

// Fail marks the run as failed
func (ps *ProcessingStatus) Fail(err error) {
	ps.IsComplete = true
	ps.Phase = PhaseFailed
	ps.Error = err
	ps.ElapsedTime = time.Since(ps.StartTime)
}

func (phase ProcessingPhase) String() string {
	switch phase {
	case PhaseInitializing:
		return "initializing"
	case PhaseScanning:
		return "scanning"
	case PhaseCompressing:
		return "compressing"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FormatElapsedTime renders the elapsed time for logs
func (ps *ProcessingStatus) FormatElapsedTime() string {
	if ps.ElapsedTime < time.Second {
		return "< 1s"
	}
	return ps.ElapsedTime.Round(time.Second).String()
}
