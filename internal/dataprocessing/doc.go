// Package dataprocessing loads the study data from the data directory.
//
// # Inputs
//
// One CSV per site named "<site>_환경데이터.csv" with the columns
// time, temperature, humidity, ph and ec, and one .xlsx workbook with a sheet
// per site holding the per-plant growth measurements.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(files.NewDiscovery(dir, logger), logger)
//	ds, err := loader.Load(ctx)
//	var missing *dataprocessing.MissingFileError
//	if errors.As(err, &missing) {
//	    // report missing.Name to the user
//	}
//
// # Error Handling
//
// Loading is all-or-nothing. Missing files and sheets match ErrMissingInput,
// unparseable cells and absent required columns match ErrMalformedData.
package dataprocessing
