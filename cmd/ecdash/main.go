package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ecdash/internal/analytics"
	"ecdash/internal/app"
	"ecdash/internal/config"
	"ecdash/internal/exporter"
	"ecdash/internal/infrastructure"
	"ecdash/internal/services"
	"ecdash/internal/validation"
	"ecdash/pkg/contracts"
)

// Export kinds accepted by the export command.
const (
	exportEnvironment = "env"
	exportGrowth      = "growth"
)

type options struct {
	configFile string
	dataDir    string
	port       int
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "ecdash",
		Short:         config.AppTitle,
		Long:          "Dashboard for the polar plant EC study: environment time series, growth results and exports.",
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides "+config.ConfigFileEnv+")")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory with the environment CSVs and the growth workbook")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve.Flags().IntVar(&opts.port, "port", 0, "listen port (default from config)")
	root.AddCommand(serve)

	var out string
	export := &cobra.Command{
		Use:       "export {env|growth}",
		Short:     "Write the combined environment CSV or growth workbook",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{exportEnvironment, exportGrowth},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, args[0], out, cmd.OutOrStdout())
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "output path (default: the download file name)")
	root.AddCommand(export)

	root.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Print the overview and the optimal EC as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummary(cmd.Context(), opts, cmd.OutOrStdout())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "List the expected input files and whether each was found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(opts, cmd.OutOrStdout())
		},
	})

	return root
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.dataDir != "" {
		cfg.Data.Dir = opts.dataDir
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	return cfg, cfg.Validate()
}

func runServe(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		return err
	}
	if err := application.Run(ctx); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// oneShot builds the data service for commands that print to stdout, so
// logs go to stderr.
func oneShot(opts *options) (*services.DataService, *slog.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger := infrastructure.NewJSONLogger(os.Stderr, cfg.Logging.Level)
	return app.NewServiceContainer(cfg, logger, nil).Data, logger, nil
}

func runExport(ctx context.Context, opts *options, kind, out string, stdout io.Writer) error {
	data, logger, err := oneShot(opts)
	if err != nil {
		return err
	}

	var write func(io.Writer) error
	switch kind {
	case exportEnvironment:
		if out == "" {
			out = exporter.EnvironmentFileName
		}
		write = func(w io.Writer) error { return data.ExportEnvironment(ctx, w) }
	case exportGrowth:
		if out == "" {
			out = exporter.GrowthFileName
		}
		write = func(w io.Writer) error { return data.ExportGrowth(ctx, w) }
	default:
		return fmt.Errorf("unknown export kind %q", kind)
	}

	// Load before creating the file so a missing input leaves nothing behind.
	if _, err := data.Dataset(ctx); err != nil {
		logger.Error("Failed to load dataset", slog.String("error", err.Error()))
		return err
	}
	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(filepath.Dir(out)); err != nil {
		return err
	}
	if err := exporter.WriteFile(out, write); err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}

type summary struct {
	Overview  *analytics.OverviewSummary `json:"overview"`
	OptimalEC *analytics.ECGroup         `json:"optimal_group"`
}

func runSummary(ctx context.Context, opts *options, stdout io.Writer) error {
	data, _, err := oneShot(opts)
	if err != nil {
		return err
	}
	overview, err := data.Overview(ctx)
	if err != nil {
		return err
	}
	optimal, err := data.OptimalEC(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary{Overview: overview, OptimalEC: optimal})
}

func runCheck(opts *options, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := infrastructure.NewJSONLogger(os.Stderr, cfg.Logging.Level)

	report, err := validation.NewFileValidator(logger).CheckDataDirectory(cfg.DataDir())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if !report.Complete() {
		return fmt.Errorf("%w: missing %v", validation.ErrIncompleteInput, report.Missing())
	}
	return nil
}
