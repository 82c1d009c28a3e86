package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ecdash/pkg/contracts/domain"
)

const envHeader = "time,temperature,humidity,ph,ec\n"

func envCSV(rows ...string) string {
	return envHeader + strings.Join(rows, "\n") + "\n"
}

// writeEnvironmentFiles writes one small environment file per site.
func writeEnvironmentFiles(t *testing.T, dir string, skip ...string) {
	t.Helper()
	skipped := make(map[string]bool)
	for _, s := range skip {
		skipped[s] = true
	}
	for _, site := range domain.SiteNames() {
		if skipped[site] {
			continue
		}
		content := envCSV(
			"2025-05-26 10:00,10,50,6.0,1.1",
			"2025-05-26 11:00,20,60,6.2,1.2",
			"2025-05-26 12:00,30,70,6.4,1.3",
		)
		require.NoError(t, os.WriteFile(filepath.Join(dir, domain.EnvironmentFileName(site)), []byte(content), 0644))
	}
}

// writeGrowthWorkbook writes a workbook with one sheet per name and two plants per sheet.
func writeGrowthWorkbook(t *testing.T, dir, file string, sheets ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"개체번호", domain.ColumnFreshWeight, domain.ColumnLeafCount, domain.ColumnShootLength}))
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, 4.5, 6, 80.5}))
		require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{2, 5.5, 8, 90}))
	}

	path := filepath.Join(dir, file)
	require.NoError(t, f.SaveAs(path))
	return path
}
