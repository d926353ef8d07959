package results

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// runnerOrder puts linux first as the most meaningful runner, then windows,
// then darwin; anything else sorts after those alphabetically.
var runnerOrder = []string{"linux", "windows", "darwin"}

// SortRunnerNames orders runner names for index output.
func SortRunnerNames(names []string) []string {
	rank := func(name string) int {
		first := strings.SplitN(name, " ", 2)[0]
		for i, o := range runnerOrder {
			if first == o {
				return i
			}
		}
		return len(runnerOrder)
	}
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

// ByRunner groups results by runner, preserving each group's input order.
func ByRunner(results []*Result) ([]string, map[string][]*Result) {
	groups := map[string][]*Result{}
	var names []string
	for _, r := range results {
		runner := r.Runner()
		if _, ok := groups[runner]; !ok {
			names = append(names, runner)
		}
		groups[runner] = append(groups[runner], r)
	}
	return SortRunnerNames(names), groups
}

// Summarize shortens a result list for the front-page index: the n most
// recent results, anything run within the day window, and any base version.
func Summarize(results []*Result, bases []string, nRecent int, days int, now time.Time) []*Result {
	earliest := now.AddDate(0, 0, -days).Format("20060102")
	isBase := map[string]bool{}
	for _, b := range bases {
		isBase[b] = true
	}

	var out []*Result
	for i, r := range results {
		if i < nRecent || r.Date >= earliest || isBase[r.Version] {
			out = append(out, r)
		}
	}
	return out
}

// writeIndexTable writes the per-runner results table. Each row links the run
// date to its results directory and each comparison summary to its document.
func writeIndexTable(w io.Writer, bases []string, results []*Result, relativeTo string) {
	head := []string{"date", "fork", "ref", "version", "hash"}
	for _, base := range bases {
		head = append(head, "vs. "+base+":")
	}

	var rows [][]string
	for _, r := range results {
		row := []string{
			MDLink(r.CommitDate, filepath.Dir(r.Path), relativeTo),
			r.Fork,
			truncate(r.Ref, 10),
			r.Version,
			r.HashAndFlags(),
		}
		for _, base := range bases {
			cell := ""
			if cmp, ok := r.Comparisons[base]; ok && cmp.MarkdownPath != "" {
				cell = MDLink(cmp.Summary, cmp.MarkdownPath, relativeTo)
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	WriteTable(w, head, rows)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
