package domain

// Table is a rectangular string table with named columns. Rows are padded to the
// column count by the loaders.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Concat stacks tables row-wise. The result's columns are the union of all input
// columns in first-seen order; cells of columns a table lacks are left empty.
func Concat(tables ...Table) Table {
	var out Table
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			merged := make([]string, len(out.Columns))
			for i, c := range t.Columns {
				if i < len(row) {
					merged[pos[c]] = row[i]
				}
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}
