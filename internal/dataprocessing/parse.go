package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\ufeff"

// timeLayouts are tried in order for the environment timestamp column. Month,
// day and hour accept one or two digits, so zero padding is optional.
var timeLayouts = []string{
	time.RFC3339,
	"2006-1-2T15:04:05",
	"2006-1-2T15:04",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006.1.2 15:04:05",
	"2006.1.2 15:04",
	"2006. 1. 2. 15:04:05",
	"2006. 1. 2. 15:04",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
}

// parseNumber converts a cell to float64. Empty cells are missing values (NaN).
func parseNumber(cell string) (float64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTimestamp(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errUnrecognizedTime
}

// normalizeHeader trims a header cell and brings it to NFC so that lookups by
// Korean column names work regardless of the producing platform.
func normalizeHeader(h string) string {
	return norm.NFC.String(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))
}

func normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = normalizeHeader(h)
	}
	return out
}

func columnIndex(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

// padRow returns row extended or cut to exactly n cells.
func padRow(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// formatEC renders a target EC the way the export tables carry it ("2.0").
func formatEC(ec *float64) string {
	if ec == nil {
		return ""
	}
	return strconv.FormatFloat(*ec, 'f', 1, 64)
}
