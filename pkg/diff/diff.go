// Package diff compares the display lines of two line-numbered documents
// and prints the result as a unified diff of their plain text.
package diff

import (
	"strings"

	"github.com/odvcencio/motiontext/pkg/htmltree"
	"github.com/odvcencio/motiontext/pkg/lcs"
	"github.com/odvcencio/motiontext/pkg/linenumber"
)

// ChangeType classifies a display line in a comparison.
type ChangeType int

const (
	Equal    ChangeType = iota // Line is present in both documents.
	Inserted                   // Line exists only in the new document.
	Deleted                    // Line exists only in the old document.
)

// Line is the plain text of one display line.
type Line struct {
	Number int
	Text   string
}

// DiffLine is a line of a comparison. OldNumber and NewNumber are zero on
// the side the line is absent from.
type DiffLine struct {
	Type      ChangeType
	Text      string
	OldNumber int
	NewNumber int
}

// Lines returns the display lines of line-numbered html with their text.
// Text before the first marker is dropped.
func Lines(html string) ([]Line, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return nil, err
	}
	var (
		lines []Line
		cur   *strings.Builder
	)
	flush := func() {
		if cur != nil {
			lines[len(lines)-1].Text = strings.Join(strings.Fields(cur.String()), " ")
		}
	}
	root.Walk(func(n *htmltree.Node) bool {
		if htmltree.IsLineNumber(n) {
			line, ok := linenumber.MarkerLine(n)
			if !ok {
				return false
			}
			flush()
			lines = append(lines, Line{Number: line})
			cur = &strings.Builder{}
			return false
		}
		if cur == nil {
			return true
		}
		switch {
		case n.IsText():
			cur.WriteString(n.Text)
		case htmltree.IsLineBreak(n):
		case n.Type == htmltree.ElementNode && !htmltree.IsInline(n):
			// Blocks and explicit breaks separate words.
			cur.WriteByte(' ')
		}
		return true
	})
	flush()
	return lines, nil
}

// Compare aligns the lines of two documents by their text.
func Compare(before, after []Line) []DiffLine {
	a := make([]string, len(before))
	for i, l := range before {
		a[i] = l.Text
	}
	b := make([]string, len(after))
	for i, l := range after {
		b[i] = l.Text
	}

	ops := lcs.MyersDiff(a, b)
	out := make([]DiffLine, 0, len(ops))
	for _, op := range ops {
		dl := DiffLine{Text: op.Value}
		switch op.Type {
		case lcs.Equal:
			dl.Type = Equal
			dl.OldNumber = before[op.AIndex].Number
			dl.NewNumber = after[op.BIndex].Number
		case lcs.Insert:
			dl.Type = Inserted
			dl.NewNumber = after[op.BIndex].Number
		case lcs.Delete:
			dl.Type = Deleted
			dl.OldNumber = before[op.AIndex].Number
		}
		out = append(out, dl)
	}
	return out
}

// Changed reports whether lines holds any insertion or deletion.
func Changed(lines []DiffLine) bool {
	for _, dl := range lines {
		if dl.Type != Equal {
			return true
		}
	}
	return false
}
