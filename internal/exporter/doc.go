// Package exporter writes the combined dashboard tables as downloads.
//
// The environment export is a CSV prefixed with a UTF-8 BOM for Excel
// compatibility. The growth export is a single-sheet XLSX workbook. Both take
// the full concatenated table and never look at the dashboard's site filter.
//
// Example usage:
//
//	frame := dataset.EnvironmentFrame()
//	err := exporter.WriteFile("out/"+exporter.EnvironmentFileName, func(w io.Writer) error {
//		return exporter.WriteEnvironmentCSV(w, frame)
//	})
package exporter
