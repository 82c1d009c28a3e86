package files

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// ErrFileNotFound is returned when no file in the directory matches.
var ErrFileNotFound = errors.New("file not found")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations over one data directory
type Discovery struct {
	dir    string
	logger *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(dir string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		dir:    dir,
		logger: logger.With(slog.String("component", "file_discovery")),
	}
}

// Dir returns the directory being searched.
func (d *Discovery) Dir() string {
	return d.dir
}

// ResolveName returns the first regular file whose name equals target under NFC
// or under NFD normalization. Matching is case-sensitive.
func (d *Discovery) ResolveName(target string) (FileInfo, error) {
	files, err := d.list()
	if err != nil {
		return FileInfo{}, err
	}

	targetNFC := norm.NFC.String(target)
	targetNFD := norm.NFD.String(target)

	for _, f := range files {
		if norm.NFC.String(f.Name) == targetNFC || norm.NFD.String(f.Name) == targetNFD {
			return f, nil
		}
	}
	return FileInfo{}, fmt.Errorf("%s: %w", target, ErrFileNotFound)
}

// FindWorkbook returns the first .xlsx file in scan order. When several
// workbooks are present the first one wins and the others are logged.
func (d *Discovery) FindWorkbook() (FileInfo, error) {
	files, err := d.list()
	if err != nil {
		return FileInfo{}, err
	}

	var candidates []FileInfo
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f.Name), ".xlsx") {
			candidates = append(candidates, f)
		}
	}

	if len(candidates) == 0 {
		return FileInfo{}, fmt.Errorf("*.xlsx: %w", ErrFileNotFound)
	}

	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		d.logger.Warn("multiple workbooks found, using the first",
			slog.String("selected", candidates[0].Name),
			slog.Any("candidates", names))
	}

	return candidates[0], nil
}

// Fingerprint hashes the name, size and modification time of every regular
// file in the directory. It changes whenever a data file is added, removed or rewritten.
func (d *Discovery) Fingerprint() (string, error) {
	files, err := d.list()
	if err != nil {
		return "", err
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", norm.NFC.String(f.Name), f.Size, f.ModTime.UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// list returns the regular files of the directory in os.ReadDir order (sorted
// by name). Symlinks count when their target is a regular file; size and
// modification time are those of the target.
func (d *Discovery) list() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		path := filepath.Join(d.dir, entry.Name())

		var info fs.FileInfo
		switch {
		case entry.Type().IsRegular():
			info, err = entry.Info()
		case entry.Type()&fs.ModeSymlink != 0:
			info, err = os.Stat(path)
		default:
			continue
		}
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{
			Path:    path,
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}
