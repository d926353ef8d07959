package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateIndex rewrites the table section of one index document.
func GenerateIndex(path string, bases []string, results []*Result, summarize bool) error {
	var sb strings.Builder

	runners, groups := ByRunner(results)
	for _, runner := range runners {
		group := groups[runner]
		if summarize {
			group = Summarize(group, bases, 3, 3, time.Now())
		}
		fmt.Fprintf(&sb, "## %s\n", runner)
		writeIndexTable(&sb, bases, group, path)
		sb.WriteString("\n")
	}

	return ReplaceSection(path, "table", sb.String())
}

// GenerateIndices rewrites both indices: the summarized one in README.md and
// the full one in RESULTS.md.
func GenerateIndices(repoDir string, bases []string, results []*Result) error {
	if err := GenerateIndex(filepath.Join(repoDir, "README.md"), bases, results, true); err != nil {
		return fmt.Errorf("generate README index: %w", err)
	}
	if err := GenerateIndex(filepath.Join(repoDir, "RESULTS.md"), bases, results, false); err != nil {
		return fmt.Errorf("generate RESULTS index: %w", err)
	}
	return nil
}

// PruneOutdated removes comparison files whose base is no longer configured
// or whose result file has disappeared. Returns the removed paths.
func PruneOutdated(resultsDir string, bases []string) ([]string, error) {
	isBase := map[string]bool{}
	for _, b := range bases {
		isBase[b] = true
	}

	var removed []string
	err := filepath.WalkDir(resultsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := d.Name()
		idx := strings.Index(name, "-vs-")
		if idx < 0 {
			return nil
		}
		ext := filepath.Ext(name)
		root := name[:idx]
		base := strings.TrimSuffix(name[idx+len("-vs-"):], ext)

		resultFile := filepath.Join(filepath.Dir(path), root+".json")
		_, statErr := os.Stat(resultFile)
		if isBase[base] && statErr == nil {
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			return rmErr
		}
		removed = append(removed, path)
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("prune %s: %w", resultsDir, err)
	}
	return removed, nil
}
