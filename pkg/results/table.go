package results

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MDLink renders a markdown link with target made relative to the file the
// link will live in.
func MDLink(text, target, relativeTo string) string {
	rel, err := filepath.Rel(filepath.Dir(relativeTo), target)
	if err != nil {
		rel = target
	}
	return fmt.Sprintf("[%s](%s)", text, filepath.ToSlash(rel))
}

// WriteTable emits a markdown table.
func WriteTable(w io.Writer, head []string, rows [][]string) {
	fmt.Fprintf(w, "| %s |\n", strings.Join(head, " | "))
	seps := make([]string, len(head))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range rows {
		fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | "))
	}
}

// WriteList emits a markdown bullet list.
func WriteList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "- %s\n", item)
	}
	fmt.Fprintln(w)
}

func sectionMarkers(name string) (string, string) {
	return fmt.Sprintf("<!-- START %s -->", name), fmt.Sprintf("<!-- END %s -->", name)
}

// ReplaceSection rewrites the marked section of a markdown document in place,
// leaving everything outside the markers untouched. A missing file is created
// containing only the section.
func ReplaceSection(path, name, content string) error {
	start, end := sectionMarkers(name)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	text := string(existing)
	startIdx := strings.Index(text, start)
	endIdx := strings.Index(text, end)

	var out string
	if startIdx < 0 || endIdx < 0 || endIdx < startIdx {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		out = text + start + "\n" + content + end + "\n"
	} else {
		out = text[:startIdx] + start + "\n" + content + text[endIdx:]
	}

	return os.WriteFile(path, []byte(out), 0644)
}
