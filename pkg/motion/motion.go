// Package motion renders a document together with the changes proposed to
// it: the original numbered text, the text with changes applied, an inline
// diff of every change, and the final text without rejected changes.
package motion

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/motiontext/pkg/extract"
	"github.com/odvcencio/motiontext/pkg/htmldiff"
	"github.com/odvcencio/motiontext/pkg/linenumber"
	"github.com/odvcencio/motiontext/pkg/merge"
)

// ErrUnknownMode is returned for a Mode outside the defined set.
var ErrUnknownMode = errors.New("unknown mode")

// Change is a proposed replacement of the lines LineFrom up to, but not
// including, LineTo by NewText.
type Change interface {
	LineFrom() int
	LineTo() int
	NewText() string
	Type() htmldiff.ModificationType
	IsRejected() bool
}

// Recommendation is a plain Change.
type Recommendation struct {
	From     int
	To       int
	Text     string
	Kind     htmldiff.ModificationType
	Rejected bool
}

func (r Recommendation) LineFrom() int                   { return r.From }
func (r Recommendation) LineTo() int                     { return r.To }
func (r Recommendation) NewText() string                 { return r.Text }
func (r Recommendation) Type() htmldiff.ModificationType { return r.Kind }
func (r Recommendation) IsRejected() bool                { return r.Rejected }

// Mode selects how Format renders a document.
type Mode int

const (
	Original Mode = iota
	Changed
	Diff
	Final
)

func (m Mode) String() string {
	switch m {
	case Original:
		return "original"
	case Changed:
		return "changed"
	case Diff:
		return "diff"
	case Final:
		return "final"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode returns the Mode named s.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{Original, Changed, Diff, Final} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// mergeBefore marks output that starts in the middle of a paragraph.
const mergeBefore = "merge-before"

// Formatter renders documents at a fixed line length. A highlight of zero
// or less highlights nothing.
type Formatter struct {
	LineLength int
}

func (f Formatter) annotate(html string, firstLine, highlight int) (string, error) {
	opts := []linenumber.Option{linenumber.WithFirstLine(firstLine)}
	if highlight > 0 {
		opts = append(opts, linenumber.WithHighlight(highlight))
	}
	return linenumber.Annotate(html, f.LineLength, opts...)
}

// Original returns text with line numbers.
func (f Formatter) Original(text string, highlight int) (string, error) {
	return f.annotate(text, 1, highlight)
}

// LastLineNumber returns the number of the last line of text.
func (f Formatter) LastLineNumber(text string) (int, error) {
	numbered, err := f.annotate(text, 1, 0)
	if err != nil {
		return 0, err
	}
	r, err := linenumber.LineNumberRange(numbered)
	if err != nil {
		return 0, err
	}
	return r.To - 1, nil
}

// WithChanges applies changes to text and numbers the result. Changes are
// applied from the last one up so that the line numbers of the remaining
// changes stay valid.
func (f Formatter) WithChanges(text string, changes []Change, highlight int) (string, error) {
	ordered := append([]Change(nil), changes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LineFrom() > ordered[j].LineFrom()
	})

	html := text
	for _, c := range ordered {
		numbered, err := f.annotate(html, 1, 0)
		if err != nil {
			return "", err
		}
		to := c.LineTo()
		html, err = merge.ReplaceLines(numbered, c.NewText(), c.LineFrom(), &to)
		if err != nil {
			return "", fmt.Errorf("apply change %d-%d: %w", c.LineFrom(), c.LineTo(), err)
		}
	}
	return f.annotate(html, 1, highlight)
}

// LineRange returns the lines r of text as a self-contained fragment,
// numbered starting at r.From when numbered is set.
func (f Formatter) LineRange(text string, r linenumber.Range, numbered bool, highlight int) (string, error) {
	orig, err := f.annotate(text, 1, 0)
	if err != nil {
		return "", err
	}
	to := r.To
	data, err := extract.Range(orig, r.From, &to)
	if err != nil {
		return "", err
	}
	html := data.Render()
	if !numbered {
		return html, nil
	}
	return f.annotate(html, r.From, highlight)
}

// ChangeDiff renders the lines affected by change as a diff against its new
// text, numbered from the first affected line.
func (f Formatter) ChangeDiff(text string, change Change, highlight int) (string, error) {
	orig, err := f.annotate(text, 1, 0)
	if err != nil {
		return "", err
	}
	to := change.LineTo()
	data, err := extract.Range(orig, change.LineFrom(), &to)
	if err != nil {
		return "", fmt.Errorf("change diff %d-%d: %w", change.LineFrom(), change.LineTo(), err)
	}

	oldText, err := f.annotate(data.Render(), change.LineFrom(), 0)
	if err != nil {
		return "", err
	}
	diff, err := htmldiff.Diff(oldText, change.NewText())
	if err != nil {
		return "", err
	}
	// Numbering ignores inserted text; this second pass keeps insertions
	// within the line length too.
	diff, err = linenumber.InsertLineBreaksWithoutNumbers(diff, f.LineLength, true)
	if err != nil {
		return "", err
	}
	if highlight > 0 {
		if diff, err = linenumber.HighlightLine(diff, highlight); err != nil {
			return "", err
		}
	}

	begin := data.OuterContextStart + data.InnerContextStart
	if begin != "" && len(diff) >= len(begin) && strings.EqualFold(diff[:len(begin)], begin) {
		diff = htmldiff.AddCSSClassToFirstTag(begin, mergeBefore) + diff[len(begin):]
	}
	return diff, nil
}

// RemainderAfterLastChange returns the numbered text following the last
// line touched by changes. Without changes it returns the whole text.
func (f Formatter) RemainderAfterLastChange(text string, changes []Change, highlight int) (string, error) {
	numbered, err := f.annotate(text, 1, 0)
	if err != nil {
		return "", err
	}
	if len(changes) == 0 {
		return f.annotate(text, 1, highlight)
	}

	maxLine := 1
	for _, c := range changes {
		maxLine = max(maxLine, c.LineTo())
	}
	data, err := extract.Range(numbered, maxLine, nil)
	if errors.Is(err, extract.ErrInconsistency) {
		// The changes reach beyond the text.
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if data.HTML == "" {
		return "", nil
	}
	html := htmldiff.AddCSSClassToFirstTag(data.OuterContextStart+data.InnerContextStart, mergeBefore) +
		data.HTML + data.InnerContextEnd + data.OuterContextEnd
	return f.annotate(html, maxLine, highlight)
}

// Format renders text with changes in the given mode. Original ignores the
// changes, Changed applies all of them, Final applies those not rejected,
// and Diff shows every change inline between the unchanged lines.
func (f Formatter) Format(text string, mode Mode, changes []Change, highlight int) (string, error) {
	switch mode {
	case Original:
		return f.Original(text, highlight)
	case Changed:
		return f.WithChanges(text, changes, highlight)
	case Final:
		var accepted []Change
		for _, c := range changes {
			if !c.IsRejected() {
				accepted = append(accepted, c)
			}
		}
		return f.WithChanges(text, accepted, highlight)
	case Diff:
		return f.formatDiff(text, changes, highlight)
	}
	return "", fmt.Errorf("format: %w: %d", ErrUnknownMode, int(mode))
}

func (f Formatter) formatDiff(text string, changes []Change, highlight int) (string, error) {
	ordered := append([]Change(nil), changes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LineFrom() < ordered[j].LineFrom()
	})

	var b strings.Builder
	next := 1
	for _, c := range ordered {
		if next < c.LineFrom() {
			html, err := f.LineRange(text, linenumber.Range{From: next, To: c.LineFrom()}, true, highlight)
			if err != nil {
				return "", err
			}
			b.WriteString(html)
		}
		html, err := f.ChangeDiff(text, c, highlight)
		if err != nil {
			return "", err
		}
		b.WriteString(html)
		next = max(next, c.LineTo())
	}

	rest, err := f.RemainderAfterLastChange(text, changes, highlight)
	if err != nil {
		return "", err
	}
	b.WriteString(rest)
	return b.String(), nil
}
