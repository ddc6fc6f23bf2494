// Package wheels indexes a local directory of pre-built wheel files and
// checks it against a requirements manifest.
package wheels

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonpo-sc/AID/internal/manifest"
)

// Wheel describes a single .whl file found in the cache.
type Wheel struct {
	// Name is the PEP 503 normalized distribution name.
	Name string
	// Version is the version encoded in the filename.
	Version string
	// Build is the optional build tag.
	Build string
	// PythonTag, ABITag and PlatformTag are the compatibility tags.
	PythonTag   string
	ABITag      string
	PlatformTag string
	// Path is the absolute file path.
	Path string
}

// Filename returns the base filename of the wheel.
func (w Wheel) Filename() string {
	return filepath.Base(w.Path)
}

// Index is a lookup over all wheels in a cache directory.
type Index struct {
	// Dir is the scanned directory.
	Dir string

	byName map[string][]Wheel
}

// MissingRequirement records a manifest entry without a satisfying wheel.
type MissingRequirement struct {
	// Requirement is the unsatisfied manifest entry.
	Requirement manifest.Requirement
	// Candidates lists cached versions of the same distribution, if any.
	Candidates []string
}

// CoverageError reports manifest entries absent from the wheel cache.
type CoverageError struct {
	// Dir is the wheel cache directory that was checked.
	Dir string
	// Missing lists the unsatisfied requirements.
	Missing []MissingRequirement
}

func (e *CoverageError) Error() string {
	if e == nil || len(e.Missing) == 0 {
		return "wheel cache coverage error"
	}
	names := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		names = append(names, m.Requirement.Raw)
	}
	return fmt.Sprintf("wheel cache %q has no wheel satisfying: %s", e.Dir, strings.Join(names, ", "))
}

// IsCoverageError reports whether err indicates incomplete wheel coverage.
func IsCoverageError(err error) bool {
	var target *CoverageError
	return errors.As(err, &target)
}

// Scan builds an Index from every .whl file directly inside dir.
// Files with malformed wheel names are skipped with a warning.
func Scan(dir string, logger *slog.Logger) (*Index, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve wheel dir: %w", err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("read wheel dir %q: %w", absDir, err)
	}

	idx := &Index{Dir: absDir, byName: make(map[string][]Wheel)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".whl") {
			continue
		}
		wheel, err := ParseFilename(entry.Name())
		if err != nil {
			if logger != nil {
				logger.Warn("skipping malformed wheel filename", "file", entry.Name(), "error", err)
			}
			continue
		}
		wheel.Path = filepath.Join(absDir, entry.Name())
		idx.byName[wheel.Name] = append(idx.byName[wheel.Name], wheel)
	}

	for name := range idx.byName {
		sort.Slice(idx.byName[name], func(i, j int) bool {
			return idx.byName[name][i].Version < idx.byName[name][j].Version
		})
	}
	return idx, nil
}

// ParseFilename parses a wheel filename of the form
// {distribution}-{version}(-{build})?-{python}-{abi}-{platform}.whl.
func ParseFilename(name string) (Wheel, error) {
	var zero Wheel

	base := strings.TrimSuffix(name, ".whl")
	if base == name {
		return zero, fmt.Errorf("%q is not a wheel file", name)
	}

	parts := strings.Split(base, "-")
	if len(parts) < 5 || len(parts) > 6 {
		return zero, fmt.Errorf("wheel name %q must have 5 or 6 dash-separated fields", name)
	}

	w := Wheel{
		Name:    manifest.NormalizeName(parts[0]),
		Version: parts[1],
	}
	tags := parts[2:]
	if len(tags) == 4 {
		w.Build = tags[0]
		tags = tags[1:]
	}
	w.PythonTag, w.ABITag, w.PlatformTag = tags[0], tags[1], tags[2]

	if w.Name == "" || w.Version == "" {
		return zero, fmt.Errorf("wheel name %q has empty distribution or version", name)
	}
	return w, nil
}

// Lookup returns all cached wheels for the given distribution name.
func (idx *Index) Lookup(name string) []Wheel {
	return idx.byName[manifest.NormalizeName(name)]
}

// Len returns the number of distinct distributions in the index.
func (idx *Index) Len() int {
	return len(idx.byName)
}

// Coverage checks that every manifest entry has at least one wheel whose
// version satisfies the entry's specifiers. A nil return means full coverage.
func (idx *Index) Coverage(m *manifest.Manifest) error {
	var missing []MissingRequirement

	for _, req := range m.Requirements {
		candidates := idx.byName[req.Name]
		satisfied := false
		for _, wheel := range candidates {
			if req.Matches(wheel.Version) {
				satisfied = true
				break
			}
		}
		if satisfied {
			continue
		}
		entry := MissingRequirement{Requirement: req}
		for _, wheel := range candidates {
			entry.Candidates = append(entry.Candidates, wheel.Version)
		}
		missing = append(missing, entry)
	}

	if len(missing) > 0 {
		return &CoverageError{Dir: idx.Dir, Missing: missing}
	}
	return nil
}
