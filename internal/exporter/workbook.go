package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ecdash/pkg/contracts/domain"
)

// GrowthSheet is the single sheet of the growth export.
const GrowthSheet = "Sheet1"

// WriteGrowthWorkbook writes the combined growth table into one sheet. Cells
// that hold numbers are stored as numbers so that spreadsheets can sum them.
func WriteGrowthWorkbook(w io.Writer, table domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, table.Columns); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = cellValue(c)
	}
	if err := f.SetSheetRow(GrowthSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
