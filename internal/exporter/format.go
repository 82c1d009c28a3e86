package exporter

import (
	"math"
	"strconv"
	"strings"
)

// Download names of the two exports.
const (
	EnvironmentFileName = "환경데이터_전체.csv"
	GrowthFileName      = "생육결과_전체.xlsx"
)

// Content types of the two exports.
const (
	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// cellValue returns a float64 for numeric text and the text itself otherwise.
// Empty cells stay empty rather than becoming zero.
func cellValue(s string) interface{} {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	return f
}
