package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"agreements/internal/domain/entities"
)

// Repository loads the YAML configuration file
type Repository struct {
	getenv func(string) string
}

// NewRepository creates a configuration repository reading the process environment
func NewRepository() *Repository {
	return &Repository{getenv: os.Getenv}
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration file, falling back to defaults when the file
// does not exist, then applies environment overrides and validates the result.
func (r *Repository) Load(configPath string) (*entities.Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	r.applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return config, nil
}

// Save writes the configuration file
func (r *Repository) Save(configPath string, config *entities.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *entities.Config {
	return &entities.Config{
		Server: entities.ServerConfig{
			Address:                   ":8000",
			ReadTimeoutSeconds:        60,
			WriteTimeoutSeconds:       300,
			MaxUploadMB:               50,
			RateLimitPerSecond:        5,
			RateLimitBurst:            10,
			MaxConcurrentCompressions: 4,
		},
		Storage: entities.StorageConfig{
			Backend:   entities.StorageBackendMinIO,
			Endpoint:  "localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "agreements",
			Disk:      "K",
		},
		Compression: entities.CompressionConfig{
			JPEGQuality:          75,
			ImageMinSizeKB:       50,
			PDFMinSizeKB:         200,
			PDFPreset:            string(entities.PresetEbook),
			StructuralBackend:    entities.StructuralBackendPDFCPU,
			GhostscriptEnv:       "GHOSTSCRIPT",
			ScanImageThreshold:   entities.DefaultScanImageThreshold,
			ScanTextOpsThreshold: entities.DefaultScanTextOpsThreshold,
		},
		Processing: entities.ProcessingConfig{
			ParallelWorkers: 2,
		},
		Output: entities.OutputConfig{
			LogLevel:    "info",
			LogFormat:   "console",
			LogToFile:   false,
			LogFileName: "agreements.log",
		},
	}
}

func (r *Repository) applyEnvOverrides(config *entities.Config) {
	getenv := r.getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("AGREEMENTS_ADDR"); v != "" {
		config.Server.Address = v
	}
	if v := getenv("STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = v
	}
	if v := getenv("MINIO_ENDPOINT"); v != "" {
		config.Storage.Endpoint = v
	}
	if v := getenv("MINIO_ACCESS_KEY"); v != "" {
		config.Storage.AccessKey = v
	}
	if v := getenv("MINIO_SECRET_KEY"); v != "" {
		config.Storage.SecretKey = v
	}
	if v := getenv("MINIO_USE_SSL"); v != "" {
		if useSSL, err := strconv.ParseBool(v); err == nil {
			config.Storage.UseSSL = useSSL
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		config.Output.LogLevel = v
	}
	if v := getenv("UNIDOC_LICENSE_API_KEY"); v != "" {
		config.Compression.UniPDFLicenseKey = v
	}
}
