package domain

import "time"

// Dataset is everything loaded from the data directory. It is read-only once built.
type Dataset struct {
	Environment map[string]*EnvironmentTable
	Growth      map[string]*GrowthTable
	// SheetOrder lists growth sheet names in workbook order.
	SheetOrder  []string
	Fingerprint string
	LoadedAt    time.Time
}

// EnvironmentTables returns the environment tables in site order.
func (d *Dataset) EnvironmentTables() []*EnvironmentTable {
	out := make([]*EnvironmentTable, 0, len(d.Environment))
	for _, name := range SiteNames() {
		if t, ok := d.Environment[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// GrowthTables returns the growth tables in workbook sheet order.
func (d *Dataset) GrowthTables() []*GrowthTable {
	out := make([]*GrowthTable, 0, len(d.SheetOrder))
	for _, name := range d.SheetOrder {
		if t, ok := d.Growth[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Readings flattens every environment reading, site by site.
func (d *Dataset) Readings() []EnvironmentReading {
	var out []EnvironmentReading
	for _, t := range d.EnvironmentTables() {
		out = append(out, t.Readings...)
	}
	return out
}

// GrowthRecords flattens every growth record, sheet by sheet.
func (d *Dataset) GrowthRecords() []GrowthRecord {
	var out []GrowthRecord
	for _, t := range d.GrowthTables() {
		out = append(out, t.Records...)
	}
	return out
}

// EnvironmentFrame concatenates every environment table row-wise.
func (d *Dataset) EnvironmentFrame() Table {
	var tables []Table
	for _, t := range d.EnvironmentTables() {
		tables = append(tables, t.Table)
	}
	return Concat(tables...)
}

// GrowthFrame concatenates every growth table row-wise.
func (d *Dataset) GrowthFrame() Table {
	var tables []Table
	for _, t := range d.GrowthTables() {
		tables = append(tables, t.Table)
	}
	return Concat(tables...)
}
