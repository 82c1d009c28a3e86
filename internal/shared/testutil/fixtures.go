package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ecdash/pkg/contracts/domain"
)

// WorkbookName is the growth workbook file written by WriteDataDir.
const WorkbookName = "4개교_생육결과데이터.xlsx"

// EnvironmentRows are the readings written for every site: temperatures 10,
// 20 and 30 so that each per-site mean is 20.
var EnvironmentRows = []string{
	"2025-05-26 10:00,10,50,6.0,1.1",
	"2025-05-26 11:00,20,60,6.2,1.2",
	"2025-05-26 12:00,30,70,6.4,1.3",
}

// WriteEnvironmentFiles writes one environment CSV per site, skipping the
// named sites.
func WriteEnvironmentFiles(t testing.TB, dir string, skip ...string) {
	t.Helper()
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	content := strings.Join(append([]string{"time,temperature,humidity,ph,ec"}, EnvironmentRows...), "\n") + "\n"
	for _, site := range domain.SiteNames() {
		if skipped[site] {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, domain.EnvironmentFileName(site)), []byte(content), 0644))
	}
}

// WriteGrowthWorkbook writes a workbook with two plants per sheet. The fresh
// weights of sheet i are 4.5+i and 5.5+i, so later sheets weigh more.
func WriteGrowthWorkbook(t testing.TB, dir, file string, sheets ...string) string {
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
		w := float64(i)
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"개체번호", domain.ColumnFreshWeight, domain.ColumnLeafCount, domain.ColumnShootLength}))
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, 4.5 + w, 6, 80.5}))
		require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{2, 5.5 + w, 8, 90}))
	}

	path := filepath.Join(dir, file)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteDataDir fills dir with a complete, valid study data set.
func WriteDataDir(t testing.TB, dir string) {
	t.Helper()
	WriteEnvironmentFiles(t, dir)
	WriteGrowthWorkbook(t, dir, WorkbookName, domain.SiteNames()...)
}
