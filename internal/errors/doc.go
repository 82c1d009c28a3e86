// Package errors maps application errors onto RFC 7807 problem responses.
// Data-loading failures from the dataprocessing package are matched with
// errors.As so the response can name the missing file or the bad cell.
package errors
