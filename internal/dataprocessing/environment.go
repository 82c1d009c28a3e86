package dataprocessing

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"ecdash/pkg/contracts/domain"
)

// ParseEnvironmentCSV reads one site's environment file. The header row is
// required; a leading UTF-8 BOM is ignored. Every row is tagged with the site.
// A timestamp in no known layout leaves the reading's Time zero and is counted
// in UnparsedTimes; the raw cell stays in the table.
func ParseEnvironmentCSV(r io.Reader, site domain.Site, source string) (*domain.EnvironmentTable, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, &MalformedDataError{File: source, Column: domain.ColumnTime, Err: errMissingColumn}
	}

	headers := normalizeHeaders(records[0])

	idx := make(map[string]int)
	for _, col := range []string{domain.ColumnTime, domain.ColumnTemperature, domain.ColumnHumidity, domain.ColumnPH, domain.ColumnEC} {
		i := columnIndex(headers, col)
		if i < 0 {
			return nil, &MalformedDataError{File: source, Column: col, Err: errMissingColumn}
		}
		idx[col] = i
	}

	table := &domain.EnvironmentTable{
		Site: site,
		Table: domain.Table{
			Columns: append(append([]string{}, headers...), domain.ColumnSite),
		},
	}

	for n, raw := range records[1:] {
		row := padRow(raw, len(headers))
		rowNum := n + 2

		reading := domain.EnvironmentReading{Site: site.Name}

		if ts, err := parseTimestamp(row[idx[domain.ColumnTime]]); err == nil {
			reading.Time = ts
		} else {
			table.UnparsedTimes++
		}

		numeric := []struct {
			col string
			dst *float64
		}{
			{domain.ColumnTemperature, &reading.Temperature},
			{domain.ColumnHumidity, &reading.Humidity},
			{domain.ColumnPH, &reading.PH},
			{domain.ColumnEC, &reading.EC},
		}
		for _, f := range numeric {
			v, err := parseNumber(row[idx[f.col]])
			if err != nil {
				return nil, &MalformedDataError{File: source, Row: rowNum, Column: f.col, Value: row[idx[f.col]], Err: err}
			}
			*f.dst = v
		}

		table.Readings = append(table.Readings, reading)
		table.Table.Rows = append(table.Table.Rows, append(row, site.Name))
	}

	return table, nil
}

// readCSV reads every record, dropping a UTF-8 BOM and tolerating ragged rows.
func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && string(bom) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
