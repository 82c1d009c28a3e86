package domain

// Source column names of the growth workbook sheets.
const (
	ColumnFreshWeight = "생중량(g)"
	ColumnLeafCount   = "잎 수(장)"
	ColumnShootLength = "지상부 길이(mm)"
)

// ColumnTargetEC is appended to every growth table and carries the sheet's target EC.
const ColumnTargetEC = "ec"

// GrowthRecord is one measured plant. TargetEC is nil when the sheet name is not
// a known site.
type GrowthRecord struct {
	Site        string            `json:"site"`
	TargetEC    *float64          `json:"target_ec"`
	FreshWeight float64           `json:"fresh_weight"`
	LeafCount   float64           `json:"leaf_count"`
	ShootLength float64           `json:"shoot_length"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// GrowthTable is one sheet of the growth workbook.
type GrowthTable struct {
	SheetName string
	TargetEC  *float64
	Table     Table
	Records   []GrowthRecord
}
