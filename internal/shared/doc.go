// Package shared holds code used by more than one package that belongs to no
// single layer.
//
// The testutil subpackage builds study data directories (environment CSVs
// and the growth workbook) and captures slog output for assertions. It is
// imported only from tests.
package shared
