package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ecdash/internal/shared/testutil"
	"ecdash/internal/validation"
	"ecdash/pkg/contracts/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ECDASH_LOGGING_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExportEnvironment(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDataDir(t, dir)
	out := filepath.Join(t.TempDir(), "exports", "env.csv")

	stdout, err := execute(t, "export", "env", "--data-dir", dir, "--out", out)
	require.NoError(t, err)
	assert.Equal(t, out, strings.TrimSpace(stdout))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\ufeff")))

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff")))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1+len(testutil.EnvironmentRows)*len(domain.SiteNames()))
	assert.Contains(t, records[0], domain.ColumnSite)
}

func TestExportGrowth(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDataDir(t, dir)
	out := filepath.Join(t.TempDir(), "growth.xlsx")

	_, err := execute(t, "export", "growth", "--data-dir", dir, "-o", out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	require.Len(t, f.GetSheetList(), 1)
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Len(t, rows, 1+2*len(domain.SiteNames()))
}

func TestExport_MissingInputWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.csv")

	_, err := execute(t, "export", "env", "--data-dir", t.TempDir(), "--out", out)
	require.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestExport_RejectsUnknownKind(t *testing.T) {
	_, err := execute(t, "export", "pdf", "--data-dir", t.TempDir())
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDataDir(t, dir)

	stdout, err := execute(t, "summary", "--data-dir", dir)
	require.NoError(t, err)

	var got struct {
		Overview struct {
			TotalPlants int     `json:"total_plants"`
			OptimalEC   float64 `json:"optimal_ec"`
		} `json:"overview"`
		OptimalGroup struct {
			EC float64 `json:"ec"`
		} `json:"optimal_group"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, 2*len(domain.SiteNames()), got.Overview.TotalPlants)
	assert.Equal(t, domain.ReferenceOptimalEC, got.Overview.OptimalEC)
	// the last sheet weighs most
	assert.Equal(t, 8.0, got.OptimalGroup.EC)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteEnvironmentFiles(t, dir)

	stdout, err := execute(t, "check", "--data-dir", dir)
	require.ErrorIs(t, err, validation.ErrIncompleteInput)

	var report validation.InputReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.False(t, report.Workbook.Found)
	assert.Len(t, report.Environment, len(domain.SiteNames()))

	testutil.WriteGrowthWorkbook(t, dir, testutil.WorkbookName, domain.SiteNames()...)
	_, err = execute(t, "check", "--data-dir", dir)
	assert.NoError(t, err)
}
