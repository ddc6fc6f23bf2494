// Package manifest contains the parser for pip-style requirements manifests.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Requirement is a single parsed entry from a requirements manifest.
type Requirement struct {
	// Name is the PEP 503 normalized distribution name.
	Name string
	// Raw is the original manifest line with comments stripped.
	Raw string
	// Extras lists requested extras (e.g. requests[socks]).
	Extras []string
	// Specifiers holds the version constraints attached to the entry.
	Specifiers []Specifier
	// Marker is the raw environment marker text after ";", if any.
	Marker string
}

// Specifier is a single version constraint, e.g. ">=2.0" or "==1.4.*".
type Specifier struct {
	// Op is one of ==, !=, <=, >=, <, >, ~=, ===.
	Op string
	// Version is the constraint version text.
	Version string
}

// Manifest is an ordered list of requirements parsed from a single file.
type Manifest struct {
	// Path is the manifest file path, empty when parsed from a reader.
	Path string
	// Requirements lists entries in file order.
	Requirements []Requirement
}

var (
	namePattern      = regexp.MustCompile(`^([A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?)`)
	normalizePattern = regexp.MustCompile(`[-_.]+`)
	specOps          = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"}
)

// NormalizeName normalizes a distribution name per PEP 503:
// lowercase with runs of "-", "_" and "." collapsed to a single "-".
func NormalizeName(name string) string {
	return strings.ToLower(normalizePattern.ReplaceAllString(name, "-"))
}

// LoadFile reads and parses a requirements manifest from disk.
func LoadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requirements manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse parses requirements from r. Blank lines and comments are skipped.
// Directives pip would resolve outside the manifest itself (-r includes,
// editable installs, URLs, local paths) are rejected: the wheel coverage
// check cannot reason about them.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}
		req, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		m.Requirements = append(m.Requirements, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Names returns the normalized names of all requirements in order.
func (m *Manifest) Names() []string {
	out := make([]string, 0, len(m.Requirements))
	for _, req := range m.Requirements {
		out = append(out, req.Name)
	}
	return out
}

// stripComment removes "#" comments and surrounding whitespace.
// Pip only treats "#" as a comment at line start or after whitespace.
func stripComment(line string) string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		if idx == 0 || line[idx-1] == ' ' || line[idx-1] == '\t' {
			line = line[:idx]
		}
	}
	return strings.TrimSpace(line)
}

func parseLine(line string) (Requirement, error) {
	var zero Requirement

	if strings.HasPrefix(line, "-") {
		return zero, fmt.Errorf("unsupported directive %q", line)
	}
	if strings.Contains(line, "://") || strings.HasPrefix(line, ".") || strings.HasPrefix(line, "/") {
		return zero, fmt.Errorf("unsupported requirement %q, only name-based entries are allowed", line)
	}

	req := Requirement{Raw: line}

	rest := line
	if idx := strings.Index(rest, ";"); idx >= 0 {
		req.Marker = strings.TrimSpace(rest[idx+1:])
		rest = strings.TrimSpace(rest[:idx])
	}

	nameMatch := namePattern.FindString(rest)
	if nameMatch == "" {
		return zero, fmt.Errorf("invalid requirement %q", line)
	}
	req.Name = NormalizeName(nameMatch)
	rest = strings.TrimSpace(rest[len(nameMatch):])

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return zero, fmt.Errorf("unterminated extras in %q", line)
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				req.Extras = append(req.Extras, NormalizeName(extra))
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if rest == "" {
		return req, nil
	}

	specs, err := parseSpecifiers(rest)
	if err != nil {
		return zero, fmt.Errorf("%w in %q", err, line)
	}
	req.Specifiers = specs
	return req, nil
}

func parseSpecifiers(s string) ([]Specifier, error) {
	var specs []Specifier
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var op string
		for _, candidate := range specOps {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, fmt.Errorf("invalid version specifier %q", part)
		}
		version := strings.TrimSpace(strings.TrimPrefix(part, op))
		if version == "" {
			return nil, fmt.Errorf("empty version in specifier %q", part)
		}
		specs = append(specs, Specifier{Op: op, Version: version})
	}
	return specs, nil
}

// Matches reports whether the given version satisfies every specifier of the
// requirement. An entry without specifiers matches any version. This is a
// preflight aid for the wheel coverage check; pip remains the authority at
// install time.
func (r Requirement) Matches(version string) bool {
	for _, spec := range r.Specifiers {
		if !spec.matches(version) {
			return false
		}
	}
	return true
}

func (s Specifier) matches(version string) bool {
	switch s.Op {
	case "===":
		return version == s.Version
	case "==":
		if strings.HasSuffix(s.Version, ".*") {
			return hasReleasePrefix(version, strings.TrimSuffix(s.Version, ".*"))
		}
		return compareVersions(version, s.Version) == 0
	case "!=":
		if strings.HasSuffix(s.Version, ".*") {
			return !hasReleasePrefix(version, strings.TrimSuffix(s.Version, ".*"))
		}
		return compareVersions(version, s.Version) != 0
	case "<=":
		return compareVersions(version, s.Version) <= 0
	case ">=":
		return compareVersions(version, s.Version) >= 0
	case "<":
		return compareVersions(version, s.Version) < 0
	case ">":
		return compareVersions(version, s.Version) > 0
	case "~=":
		// Compatible release: >= V and matching the release series one
		// segment above the last one given (~=2.4.1 means >=2.4.1, ==2.4.*).
		if compareVersions(version, s.Version) < 0 {
			return false
		}
		segments := strings.Split(s.Version, ".")
		if len(segments) < 2 {
			return true
		}
		return hasReleasePrefix(version, strings.Join(segments[:len(segments)-1], "."))
	default:
		return false
	}
}

// hasReleasePrefix reports whether version starts with the given release
// prefix on a segment boundary (2.4.1 has prefixes 2 and 2.4, while 2.40.1
// does not have prefix 2.4).
func hasReleasePrefix(version, prefix string) bool {
	vs := strings.Split(version, ".")
	ps := strings.Split(prefix, ".")
	if len(ps) > len(vs) {
		return false
	}
	for i := range ps {
		if segmentCompare(vs[i], ps[i]) != 0 {
			return false
		}
	}
	return true
}

// compareVersions compares two dotted version strings segment-wise.
// Numeric segments compare numerically, everything else lexically; missing
// trailing segments count as zero. Pre-release and local-version tags are
// compared as plain strings after the numeric prefix.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := "0", "0"
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if c := segmentCompare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

func segmentCompare(a, b string) int {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
