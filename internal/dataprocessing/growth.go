package dataprocessing

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"ecdash/pkg/contracts/domain"
)

var growthColumns = []string{domain.ColumnFreshWeight, domain.ColumnLeafCount, domain.ColumnShootLength}

// ParseGrowthWorkbook reads every sheet of the growth workbook. The sheet name is
// the site; sheets that are not in the site table get no target EC.
// Tables are returned in workbook order.
func ParseGrowthWorkbook(f *excelize.File, source string, logger *slog.Logger) ([]*domain.GrowthTable, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var tables []*domain.GrowthTable
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, source, err)
		}

		table, err := parseGrowthSheet(sheet, rows, source, logger)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func parseGrowthSheet(sheet string, rows [][]string, source string, logger *slog.Logger) (*domain.GrowthTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	// Sheets are keyed in NFC so that decomposed names still match the site table.
	name := norm.NFC.String(sheet)
	ec := domain.TargetECFor(name)
	if ec == nil {
		logger.Warn("growth sheet is not a known site, target EC left empty",
			slog.String("workbook", source),
			slog.String("sheet", sheet))
	}

	table := &domain.GrowthTable{SheetName: name, TargetEC: ec}

	headerRow := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerRow = i
			break
		}
	}

	var headers []string
	if headerRow >= 0 {
		headers = normalizeHeaders(rows[headerRow])
	}
	table.Table.Columns = append(append([]string{}, headers...), domain.ColumnSite, domain.ColumnTargetEC)

	idx := make(map[string]int)
	for _, col := range growthColumns {
		i := columnIndex(headers, col)
		if i < 0 && ec != nil {
			return nil, &MalformedDataError{File: source + "#" + sheet, Column: col, Err: errMissingColumn}
		}
		idx[col] = i
	}
	if headerRow < 0 {
		return table, nil
	}

	ecCell := formatEC(ec)
	for n := headerRow + 1; n < len(rows); n++ {
		if isBlank(rows[n]) {
			continue
		}
		row := padRow(rows[n], len(headers))

		record := domain.GrowthRecord{
			Site:     name,
			TargetEC: ec,
			Fields:   make(map[string]string, len(headers)),
		}
		for i, h := range headers {
			if h != "" {
				record.Fields[h] = row[i]
			}
		}

		numeric := []struct {
			col string
			dst *float64
		}{
			{domain.ColumnFreshWeight, &record.FreshWeight},
			{domain.ColumnLeafCount, &record.LeafCount},
			{domain.ColumnShootLength, &record.ShootLength},
		}
		for _, field := range numeric {
			cell := ""
			if i := idx[field.col]; i >= 0 {
				cell = row[i]
			}
			v, err := parseNumber(cell)
			if err != nil {
				return nil, &MalformedDataError{File: source + "#" + sheet, Row: n + 1, Column: field.col, Value: cell, Err: err}
			}
			*field.dst = v
		}

		table.Records = append(table.Records, record)
		table.Table.Rows = append(table.Table.Rows, append(row, name, ecCell))
	}

	return table, nil
}
