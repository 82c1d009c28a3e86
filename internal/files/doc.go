// Package files locates the input files of the dashboard inside the data directory.
//
// Source files are named in Korean and may have been copied from macOS (NFD)
// or Windows/Linux (NFC) filesystems, so Discovery compares names under both
// normalization forms instead of byte equality:
//
//	discovery := files.NewDiscovery("data", logger)
//	info, err := discovery.ResolveName("송도고_환경데이터.csv")
//	if errors.Is(err, files.ErrFileNotFound) {
//	    // abort the load
//	}
//
// Fingerprint summarizes the directory contents and is used as the dataset cache key.
package files
