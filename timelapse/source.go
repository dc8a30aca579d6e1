package timelapse

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Format is the decoder family a source file belongs to
type Format int

const (
	FormatRaster Format = iota
	FormatRaw
)

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatRaster:
		return "raster"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

var rawExtensions = map[string]struct{}{
	".arw": {},
	".raw": {},
	".cr2": {},
	".nef": {},
	".dng": {},
}

var rasterExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// SourceImage is one input file and its position in the output video
type SourceImage struct {
	Path    string
	Format  Format
	Ordinal int
}

// Classify picks the decoder family by file extension, case-insensitively.
// Anything that is not a known raw extension goes down the raster path.
func Classify(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := rawExtensions[ext]; ok {
		return FormatRaw
	}
	return FormatRaster
}

// IsImageFile checks if the given file extension is one of the supported image extensions
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := rawExtensions[ext]; ok {
		return true
	}
	_, ok := rasterExtensions[ext]
	return ok
}

// NewSources sorts paths lexicographically and assigns ordinals.
// The input slice is not modified.
func NewSources(paths []string) []SourceImage {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	sources := make([]SourceImage, len(sorted))
	for i, p := range sorted {
		sources[i] = SourceImage{Path: p, Format: Classify(p), Ordinal: i}
	}
	return sources
}

// ExpandPaths replaces directory arguments with the supported image files they
// contain (non-recursive). Plain file arguments are kept as-is, whatever
// their extension, so that the decoder can report on them.
func ExpandPaths(paths []string) ([]string, error) {
	var expanded []string

	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		if !fi.IsDir() {
			expanded = append(expanded, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !IsImageFile(entry.Name()) {
				continue
			}
			expanded = append(expanded, filepath.Join(path, entry.Name()))
		}
	}

	return expanded, nil
}
