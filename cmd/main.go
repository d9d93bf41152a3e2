package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agreements/internal/domain/entities"
	"agreements/internal/domain/repositories"
	"agreements/internal/infrastructure/config"
	"agreements/internal/infrastructure/logging"
	usecases "agreements/internal/usecase"
)

var (
	configPath string
	envPath    string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "agreements",
		Short:         "Agreement upload service with PDF and JPEG compression",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration")
	root.PersistentFlags().StringVar(&envPath, "env", ".env", "path to an optional .env file")

	root.AddCommand(newServeCommand(), newCompressCommand(), newClassifyCommand(), newInitConfigCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, err := bootstrap()
			if err != nil {
				return err
			}
			defer processor.Shutdown()

			return processor.Serve(cmd.Context())
		},
	}
}

func newCompressCommand() *cobra.Command {
	var (
		output  string
		replace bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "compress <file|directory>",
		Short: "Compress local PDF and JPEG files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, err := bootstrap()
			if err != nil {
				return err
			}
			defer processor.Shutdown()

			if workers <= 0 {
				workers = processor.config.Processing.ParallelWorkers
			}
			return processor.Compress(cmd.Context(), usecases.BatchOptions{
				Source:  args[0],
				Target:  output,
				Replace: replace,
				Workers: workers,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "compressed", "output directory")
	cmd.Flags().BoolVar(&replace, "replace", false, "overwrite originals that got smaller")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel workers, defaults to the configured value")
	return cmd
}

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file.pdf>",
		Short: "Report whether a PDF looks like a scanned document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, err := bootstrap()
			if err != nil {
				return err
			}
			defer processor.Shutdown()

			return processor.Classify(args[0], cmd.OutOrStdout())
		},
	}
}

func newInitConfigCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
			}
			var configRepo repositories.AppConfigRepository = config.NewRepository()
			if err := configRepo.Save(configPath, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// bootstrap loads the configuration and creates the logger
func bootstrap() (*ApplicationProcessor, error) {
	if err := config.LoadDotEnv(envPath); err != nil {
		return nil, err
	}

	var configRepo repositories.AppConfigRepository = config.NewRepository()
	appConfig, err := configRepo.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := newLogger(appConfig.Output)
	if err != nil {
		return nil, err
	}

	return NewApplicationProcessor(appConfig, logger), nil
}

func newLogger(out entities.OutputConfig) (*logging.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:     out.LogLevel,
		Format:    out.LogFormat,
		LogToFile: out.LogToFile,
		FileName:  out.LogFileName,
		Service:   "agreements",
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}
