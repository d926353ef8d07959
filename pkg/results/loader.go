package results

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// LoadAll walks the results directory and returns every parseable result,
// newest first. Comparison documents sitting beside each result are attached.
func LoadAll(resultsDir string) ([]*Result, error) {
	var results []*Result

	err := filepath.WalkDir(resultsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, "bm-") || strings.Contains(name, "-vs-") {
			return nil
		}
		r, perr := ParseFilename(path)
		if perr != nil {
			// Unrecognized files in the results tree are tolerated; the
			// generation tool owns the directory.
			return nil
		}
		r.loadCommitDate()
		if derr := r.discoverComparisons(); derr != nil {
			return derr
		}
		results = append(results, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", resultsDir, err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CommitDate != results[j].CommitDate {
			return results[i].CommitDate > results[j].CommitDate
		}
		return results[i].Stem() > results[j].Stem()
	})
	return results, nil
}
