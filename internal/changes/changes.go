// Package changes reports what a regenerated collection changed, as
// diff-match-patch patch text over the plain-text console rendering.
package changes

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/regconsole/internal/render"
	"github.com/dshills/regconsole/internal/schema"
)

// Summary counts the inserted and deleted characters of a diff.
type Summary struct {
	Inserted int
	Deleted  int
}

// Changed reports whether the diff contains any edit.
func (s Summary) Changed() bool { return s.Inserted > 0 || s.Deleted > 0 }

// Diff renders both collections as text and returns the patch turning the
// old rendering into the new one. An empty patch means nothing changed.
func Diff(before, after []schema.Record) (string, Summary, error) {
	r, err := render.NewRenderer("text")
	if err != nil {
		return "", Summary{}, err
	}
	oldText, err := r.Render(before)
	if err != nil {
		return "", Summary{}, fmt.Errorf("rendering previous collection: %w", err)
	}
	newText, err := r.Render(after)
	if err != nil {
		return "", Summary{}, fmt.Errorf("rendering new collection: %w", err)
	}
	patch, sum := Text(normalize(string(oldText)), normalize(string(newText)))
	return patch, sum, nil
}

// Text returns the patch text between two strings.
func Text(before, after string) (string, Summary) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var sum Summary
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sum.Inserted += len(d.Text)
		case diffmatchpatch.DiffDelete:
			sum.Deleted += len(d.Text)
		}
	}
	if !sum.Changed() {
		return "", sum
	}
	return dmp.PatchToText(dmp.PatchMake(before, diffs)), sum
}

// normalize trims trailing whitespace from each line and converts CRLF to LF.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
