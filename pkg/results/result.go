// Package results reads benchmark result files from the results repository and
// regenerates the markdown indices that link them together.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrBadFilename indicates a result file does not follow the naming convention
var ErrBadFilename = errors.New("malformed result filename")

// Comparison links a result to one of its comparison documents on disk
type Comparison struct {
	Base         string
	MarkdownPath string
	PlotPath     string
	// Summary is the overall geometric mean line extracted from the
	// comparison document, e.g. "1.02x faster".
	Summary string
}

// Result describes one benchmark result file. All identifying metadata is
// carried in the filename:
//
//	bm-<date>-<os>-<arch>-<fork>-<ref>-<version>-<hash>[-<flag>...].json
type Result struct {
	Path    string
	Date    string // YYYYMMDD run date
	OS      string
	Arch    string
	Fork    string
	Ref     string
	Version string
	Hash    string
	Flags   []string

	// CommitDate comes from the result contents when present, falling back
	// to the run date.
	CommitDate string

	Comparisons map[string]*Comparison
}

// Stem returns the filename without directory or extension.
func (r *Result) Stem() string {
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Runner identifies the machine class that produced the result.
func (r *Result) Runner() string {
	return r.OS + " " + r.Arch
}

// HashAndFlags renders the short hash with any build flags appended.
func (r *Result) HashAndFlags() string {
	if len(r.Flags) == 0 {
		return r.Hash
	}
	return r.Hash + " (" + strings.Join(r.Flags, ",") + ")"
}

// ParseFilename extracts result metadata from a result file path.
func ParseFilename(path string) (*Result, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "-")
	if len(parts) < 8 || parts[0] != "bm" {
		return nil, fmt.Errorf("%w: %s", ErrBadFilename, base)
	}
	r := &Result{
		Path:        path,
		Date:        parts[1],
		OS:          parts[2],
		Arch:        parts[3],
		Fork:        parts[4],
		Ref:         parts[5],
		Version:     parts[6],
		Hash:        parts[7],
		Flags:       parts[8:],
		Comparisons: map[string]*Comparison{},
	}
	if len(r.Date) != 8 {
		return nil, fmt.Errorf("%w: bad date in %s", ErrBadFilename, base)
	}
	r.CommitDate = r.Date
	return r, nil
}

// loadCommitDate pulls the commit date out of the result contents. Results are
// otherwise treated as opaque blobs, so a missing or unreadable metadata block
// is not an error.
func (r *Result) loadCommitDate() {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return
	}
	var contents struct {
		Metadata struct {
			CommitDate string `json:"commit_date"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &contents); err != nil {
		return
	}
	if contents.Metadata.CommitDate != "" {
		r.CommitDate = contents.Metadata.CommitDate
	}
}

// discoverComparisons finds <stem>-vs-<base>.md/.png files beside the result
// and extracts their summary lines.
func (r *Result) discoverComparisons() error {
	dir := filepath.Dir(r.Path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	prefix := r.Stem() + "-vs-"
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		ext := filepath.Ext(rest)
		base := strings.TrimSuffix(rest, ext)
		cmp, ok := r.Comparisons[base]
		if !ok {
			cmp = &Comparison{Base: base}
			r.Comparisons[base] = cmp
		}
		full := filepath.Join(dir, name)
		switch ext {
		case ".md":
			cmp.MarkdownPath = full
			cmp.Summary = readSummary(full)
		case ".png":
			cmp.PlotPath = full
		}
	}
	return nil
}

// readSummary extracts the geometric mean from a comparison document header.
func readSummary(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	const marker = "overall geometric mean:"
	for _, line := range strings.Split(string(data), "\n") {
		if idx := strings.Index(line, marker); idx >= 0 {
			return strings.TrimSpace(line[idx+len(marker):])
		}
	}
	return ""
}
