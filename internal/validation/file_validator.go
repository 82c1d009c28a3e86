package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ecdash/internal/files"
	"ecdash/pkg/contracts/domain"
)

// ErrIncompleteInput is returned by RequireComplete when an input file is missing.
var ErrIncompleteInput = errors.New("data directory is incomplete")

// InputFile is one expected input and where it was found.
type InputFile struct {
	Site  string `json:"site,omitempty"`
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Size  int64  `json:"size,omitempty"`
	Found bool   `json:"found"`
}

// InputReport lists the expected inputs of a data directory.
type InputReport struct {
	Dir         string      `json:"dir"`
	Environment []InputFile `json:"environment"`
	Workbook    InputFile   `json:"workbook"`
}

// Complete reports whether every expected file was found.
func (r *InputReport) Complete() bool {
	if !r.Workbook.Found {
		return false
	}
	for _, f := range r.Environment {
		if !f.Found {
			return false
		}
	}
	return true
}

// Missing returns the names of the files that were not found.
func (r *InputReport) Missing() []string {
	var missing []string
	for _, f := range r.Environment {
		if !f.Found {
			missing = append(missing, f.Name)
		}
	}
	if !r.Workbook.Found {
		missing = append(missing, r.Workbook.Name)
	}
	return missing
}

// FileValidator checks input and output directories for the CLI.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that the input directory exists
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// CheckDataDirectory resolves every expected input the way the loaders do,
// without parsing any of them. Missing files are reported, not returned as errors.
func (v *FileValidator) CheckDataDirectory(dir string) (*InputReport, error) {
	if err := v.ValidateInputDirectory(dir); err != nil {
		return nil, err
	}

	discovery := files.NewDiscovery(dir, v.logger)
	report := &InputReport{Dir: dir}

	for _, site := range domain.SiteNames() {
		name := domain.EnvironmentFileName(site)
		info, err := discovery.ResolveName(name)
		input, err := toInput(site, name, info, err)
		if err != nil {
			return nil, err
		}
		report.Environment = append(report.Environment, input)
	}

	info, err := discovery.FindWorkbook()
	report.Workbook, err = toInput("", "*.xlsx", info, err)
	if err != nil {
		return nil, err
	}

	if missing := report.Missing(); len(missing) > 0 {
		v.logger.Warn("Data directory is incomplete",
			slog.String("directory", dir),
			slog.Any("missing", missing))
	} else {
		v.logger.Info("Data directory validated",
			slog.String("directory", dir),
			slog.String("workbook", report.Workbook.Name))
	}
	return report, nil
}

func toInput(site, name string, info files.FileInfo, err error) (InputFile, error) {
	switch {
	case errors.Is(err, files.ErrFileNotFound):
		return InputFile{Site: site, Name: name}, nil
	case err != nil:
		return InputFile{}, err
	}
	return InputFile{Site: site, Name: info.Name, Path: info.Path, Size: info.Size, Found: true}, nil
}

// RequireComplete is CheckDataDirectory that fails on the first missing file.
func (v *FileValidator) RequireComplete(dir string) (*InputReport, error) {
	report, err := v.CheckDataDirectory(dir)
	if err != nil {
		return nil, err
	}
	if missing := report.Missing(); len(missing) > 0 {
		return report, fmt.Errorf("%w: missing %v", ErrIncompleteInput, missing)
	}
	return report, nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(file.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", filepath.Clean(dir)))
	return nil
}
