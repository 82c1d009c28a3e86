package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ecdash/internal/files"
	"ecdash/pkg/contracts/domain"
)

const tracerName = "ecdash/dataprocessing"

// Loader builds a Dataset from the data directory.
type Loader struct {
	discovery *files.Discovery
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewLoader creates a loader reading through the given discovery.
func NewLoader(discovery *files.Discovery, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		discovery: discovery,
		logger:    logger.With(slog.String("component", "loader")),
		tracer:    otel.Tracer(tracerName),
	}
}

// Fingerprint identifies the current contents of the data directory.
func (l *Loader) Fingerprint() (string, error) {
	return l.discovery.Fingerprint()
}

// Load reads the environment files and the growth workbook. Any missing file,
// missing site sheet or malformed cell fails the whole load.
func (l *Loader) Load(ctx context.Context) (*domain.Dataset, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("data.dir", l.discovery.Dir())))
	defer span.End()

	start := time.Now()
	ds, err := l.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("dir", l.discovery.Dir()),
			slog.String("error", err.Error()))
		return nil, err
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("fingerprint", ds.Fingerprint),
		slog.Int("environment_rows", len(ds.Readings())),
		slog.Int("growth_rows", len(ds.GrowthRecords())),
		slog.Duration("duration", time.Since(start)))
	return ds, nil
}

func (l *Loader) load(ctx context.Context) (*domain.Dataset, error) {
	fingerprint, err := l.discovery.Fingerprint()
	if err != nil {
		return nil, err
	}

	env, err := l.LoadEnvironment(ctx)
	if err != nil {
		return nil, err
	}

	growth, order, err := l.LoadGrowth(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.Dataset{
		Environment: env,
		Growth:      growth,
		SheetOrder:  order,
		Fingerprint: fingerprint,
		LoadedAt:    time.Now(),
	}, nil
}

// LoadEnvironment resolves and parses "<site>_환경데이터.csv" for every site.
func (l *Loader) LoadEnvironment(ctx context.Context) (map[string]*domain.EnvironmentTable, error) {
	out := make(map[string]*domain.EnvironmentTable, len(domain.SiteNames()))

	for _, site := range domain.Sites() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := domain.EnvironmentFileName(site.Name)
		info, err := l.discovery.ResolveName(name)
		if err != nil {
			if errors.Is(err, files.ErrFileNotFound) {
				return nil, &MissingFileError{Name: name, Err: err}
			}
			return nil, err
		}

		table, err := l.parseEnvironmentFile(info.Path, site)
		if err != nil {
			return nil, err
		}

		if table.UnparsedTimes > 0 {
			l.logger.WarnContext(ctx, "environment timestamps not recognized, readings left off the time axis",
				slog.String("file", info.Name),
				slog.Int("readings", table.UnparsedTimes))
		}

		l.logger.DebugContext(ctx, "environment file parsed",
			slog.String("site", site.Name),
			slog.String("file", info.Name),
			slog.Int("rows", len(table.Readings)))
		out[site.Name] = table
	}

	return out, nil
}

func (l *Loader) parseEnvironmentFile(path string, site domain.Site) (*domain.EnvironmentTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ParseEnvironmentCSV(f, site, path)
}

// LoadGrowth reads the workbook and returns its sheets keyed by name together
// with the workbook sheet order. Every site must have a sheet.
func (l *Loader) LoadGrowth(ctx context.Context) (map[string]*domain.GrowthTable, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	info, err := l.discovery.FindWorkbook()
	if err != nil {
		if errors.Is(err, files.ErrFileNotFound) {
			return nil, nil, &MissingFileError{Name: "*.xlsx", Err: err}
		}
		return nil, nil, err
	}

	wb, err := excelize.OpenFile(info.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook %s: %w", info.Path, err)
	}
	defer wb.Close()

	tables, err := ParseGrowthWorkbook(wb, info.Path, l.logger)
	if err != nil {
		return nil, nil, err
	}

	out := make(map[string]*domain.GrowthTable, len(tables))
	order := make([]string, 0, len(tables))
	for _, t := range tables {
		if _, dup := out[t.SheetName]; dup {
			l.logger.WarnContext(ctx, "duplicate growth sheet after normalization, keeping the first",
				slog.String("workbook", info.Name),
				slog.String("sheet", t.SheetName))
			continue
		}
		out[t.SheetName] = t
		order = append(order, t.SheetName)
	}

	for _, site := range domain.SiteNames() {
		if _, ok := out[site]; !ok {
			return nil, nil, &MissingSheetError{Workbook: info.Name, Sheet: site}
		}
	}

	l.logger.DebugContext(ctx, "growth workbook parsed",
		slog.String("file", info.Name),
		slog.Any("sheets", order))
	return out, order, nil
}
