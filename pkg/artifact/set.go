// Package artifact defines the fixed set of output paths produced by a
// regeneration run and helpers to verify and mirror them.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Kind distinguishes directory artifacts from file artifacts
type Kind string

const (
	KindDir  Kind = "dir"
	KindFile Kind = "file"
)

// Artifact is one entry of the persisted output set
type Artifact struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// ErrMissingArtifact indicates an expected output path was not produced
var ErrMissingArtifact = errors.New("expected artifact missing")

// Set returns the fixed artifact set persisted after a successful run.
// The order is not significant; the contents are.
func Set() []Artifact {
	return []Artifact{
		{Path: "results", Kind: KindDir},
		{Path: "README.md", Kind: KindFile},
		{Path: "RESULTS.md", Kind: KindFile},
		{Path: "longitudinal.png", Kind: KindFile},
		{Path: "longitudinal.json", Kind: KindFile},
		{Path: "profiling.png", Kind: KindFile},
		{Path: "profiling.md", Kind: KindFile},
	}
}

// Paths returns just the relative paths of the artifact set, in declaration order.
func Paths() []string {
	set := Set()
	paths := make([]string, len(set))
	for i, a := range set {
		paths[i] = a.Path
	}
	return paths
}

// Verify checks that every artifact exists under repoDir with the expected kind.
// Generation tools may legitimately skip the profiling pair when no profiling
// data is present, so missing profiling outputs are reported but not fatal.
func Verify(repoDir string) ([]string, error) {
	var missing []string
	for _, a := range Set() {
		full := filepath.Join(repoDir, a.Path)
		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, a.Path)
				continue
			}
			return missing, fmt.Errorf("stat %s: %w", a.Path, err)
		}
		if a.Kind == KindDir && !info.IsDir() {
			return missing, fmt.Errorf("%w: %s is not a directory", ErrMissingArtifact, a.Path)
		}
		if a.Kind == KindFile && info.IsDir() {
			return missing, fmt.Errorf("%w: %s is a directory", ErrMissingArtifact, a.Path)
		}
	}
	for _, m := range missing {
		if m != "profiling.png" && m != "profiling.md" {
			return missing, fmt.Errorf("%w: %s", ErrMissingArtifact, m)
		}
	}
	return missing, nil
}
