package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"ecdash/internal/files"
	"ecdash/pkg/contracts/domain"
)

func newTestLoader(dir string) *Loader {
	return NewLoader(files.NewDiscovery(dir, nil), nil)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeEnvironmentFiles(t, dir)
	writeGrowthWorkbook(t, dir, "생육결과.xlsx", domain.SiteNames()...)

	ds, err := newTestLoader(dir).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, ds.Environment, 4)
	assert.Len(t, ds.Growth, 4)
	for _, site := range domain.SiteNames() {
		assert.Contains(t, ds.Environment, site)
		assert.Contains(t, ds.Growth, site)
	}
	assert.Equal(t, domain.SiteNames(), ds.SheetOrder)
	assert.NotEmpty(t, ds.Fingerprint)
	assert.False(t, ds.LoadedAt.IsZero())
	assert.Len(t, ds.Readings(), 12)
	assert.Len(t, ds.GrowthRecords(), 8)
}

func TestLoader_Load_DecomposedFileNames(t *testing.T) {
	dir := t.TempDir()
	for _, site := range domain.SiteNames() {
		name := norm.NFD.String(domain.EnvironmentFileName(site))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(envCSV("2025-05-26 10:00,1,2,3,4")), 0644))
	}
	writeGrowthWorkbook(t, dir, "growth.xlsx", domain.SiteNames()...)

	ds, err := newTestLoader(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Environment, 4)
}

func TestLoader_Load_DecomposedSheetNames(t *testing.T) {
	dir := t.TempDir()
	writeEnvironmentFiles(t, dir)
	sheets := make([]string, 0, 4)
	for _, site := range domain.SiteNames() {
		sheets = append(sheets, norm.NFD.String(site))
	}
	writeGrowthWorkbook(t, dir, "growth.xlsx", sheets...)

	ds, err := newTestLoader(dir).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, ds.Growth, 4)
	for _, site := range domain.SiteNames() {
		require.Contains(t, ds.Growth, site)
		table := ds.Growth[site]
		assert.Equal(t, site, table.SheetName)
		require.NotNil(t, table.TargetEC)
		assert.Equal(t, *domain.TargetECFor(site), *table.TargetEC)
		for _, r := range table.Records {
			assert.Equal(t, site, r.Site)
		}
	}
	assert.Equal(t, domain.SiteNames(), ds.SheetOrder)
}

func TestLoader_Load_SymlinkedFiles(t *testing.T) {
	src := t.TempDir()
	writeEnvironmentFiles(t, src)
	writeGrowthWorkbook(t, src, "growth.xlsx", domain.SiteNames()...)

	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	dir := t.TempDir()
	for _, e := range entries {
		if err := os.Symlink(filepath.Join(src, e.Name()), filepath.Join(dir, e.Name())); err != nil {
			t.Skipf("symlinks not supported: %v", err)
		}
	}

	ds, err := newTestLoader(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Environment, 4)
	assert.Len(t, ds.Growth, 4)
}

func TestLoader_Load_MissingEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	writeEnvironmentFiles(t, dir, "아라고")
	writeGrowthWorkbook(t, dir, "growth.xlsx", domain.SiteNames()...)

	ds, err := newTestLoader(dir).Load(context.Background())

	require.Error(t, err)
	assert.Nil(t, ds)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.ErrorIs(t, err, files.ErrFileNotFound)

	var missing *MissingFileError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "아라고_환경데이터.csv", missing.Name)
}

func TestLoader_Load_MissingWorkbook(t *testing.T) {
	dir := t.TempDir()
	writeEnvironmentFiles(t, dir)

	_, err := newTestLoader(dir).Load(context.Background())

	var missing *MissingFileError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "*.xlsx", missing.Name)
}

func TestLoader_Load_MissingSiteSheet(t *testing.T) {
	dir := t.TempDir()
	writeEnvironmentFiles(t, dir)
	writeGrowthWorkbook(t, dir, "growth.xlsx", "송도고", "하늘고", "아라고")

	_, err := newTestLoader(dir).Load(context.Background())

	var missing *MissingSheetError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "동산고", missing.Sheet)
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestLoader_Load_ExtraSheetKept(t *testing.T) {
	dir := t.TempDir()
	writeEnvironmentFiles(t, dir)
	writeGrowthWorkbook(t, dir, "growth.xlsx", append(domain.SiteNames(), "예비")...)

	ds, err := newTestLoader(dir).Load(context.Background())
	require.NoError(t, err)

	require.Contains(t, ds.Growth, "예비")
	assert.Nil(t, ds.Growth["예비"].TargetEC)
}

func TestLoader_Load_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeEnvironmentFiles(t, dir)
	writeGrowthWorkbook(t, dir, "growth.xlsx", domain.SiteNames()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader(dir).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
