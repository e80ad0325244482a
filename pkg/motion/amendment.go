package motion

import (
	"fmt"
	"strings"

	"github.com/odvcencio/motiontext/pkg/extract"
	"github.com/odvcencio/motiontext/pkg/htmldiff"
	"github.com/odvcencio/motiontext/pkg/htmltree"
	"github.com/odvcencio/motiontext/pkg/lcs"
	"github.com/odvcencio/motiontext/pkg/linenumber"
)

// AmendedParagraph is one changed region of an amendment.
type AmendedParagraph struct {
	// Paragraph is the index of the first base paragraph involved.
	Paragraph int
	// ParagraphLines are the lines of the base paragraphs involved.
	ParagraphLines linenumber.Range
	// Lines are the lines containing changes.
	Lines linenumber.Range
	// Diff is the diff markup of Lines.
	Diff string
	// Text is the amended content of Lines.
	Text string
}

// hunk groups consecutive changed paragraphs. base and amended index into
// the paragraph lists of either side. A hunk that only inserts paragraphs
// is anchored to one unchanged base paragraph, which then appears on both
// sides of the comparison: before the insertion when anchorFirst is set,
// after it otherwise.
type hunk struct {
	base        []int
	amended     []int
	anchored    bool
	anchorFirst bool
}

// AmendmentParagraphs compares the amended document with base paragraph by
// paragraph and returns the changed regions in document order. Paragraphs
// are aligned by their text, so an amendment may add or remove whole
// paragraphs.
func AmendmentParagraphs(base, amended string, lineLength int) ([]AmendedParagraph, error) {
	f := Formatter{LineLength: lineLength}
	numbered, err := f.Original(base, 0)
	if err != nil {
		return nil, err
	}
	baseParas, err := linenumber.SplitToParagraphs(numbered)
	if err != nil {
		return nil, err
	}
	newParas, err := linenumber.SplitToParagraphs(amended)
	if err != nil {
		return nil, err
	}

	baseKeys := make([]string, len(baseParas))
	strippedParas := make([]string, len(baseParas))
	for i, p := range baseParas {
		if strippedParas[i], err = linenumber.StripLineNumbers(p); err != nil {
			return nil, err
		}
		baseKeys[i] = paragraphKey(strippedParas[i])
	}
	newKeys := make([]string, len(newParas))
	for i, p := range newParas {
		newKeys[i] = paragraphKey(p)
	}

	var out []AmendedParagraph
	for _, h := range hunks(lcs.MyersDiff(baseKeys, newKeys), len(baseParas)) {
		if len(h.base) == 0 {
			continue
		}
		var oldHTML, newHTML strings.Builder
		for _, i := range h.base {
			oldHTML.WriteString(baseParas[i])
		}
		if h.anchored && h.anchorFirst {
			newHTML.WriteString(strippedParas[h.base[0]])
		}
		for _, i := range h.amended {
			newHTML.WriteString(newParas[i])
		}
		if h.anchored && !h.anchorFirst {
			newHTML.WriteString(strippedParas[h.base[0]])
		}
		p, ok, err := amendedParagraph(oldHTML.String(), newHTML.String())
		if err != nil {
			return nil, fmt.Errorf("amendment paragraph %d: %w", h.base[0], err)
		}
		if ok {
			p.Paragraph = h.base[0]
			out = append(out, p)
		}
	}
	return out, nil
}

func paragraphKey(html string) string {
	return strings.TrimSpace(htmltree.NormalizeForDiff(html))
}

// hunks groups the edit script into changed regions. A region that only
// inserts paragraphs is anchored to the base paragraph before it, or to the
// first one when it starts the document, so that every region has lines.
func hunks(ops []lcs.Op[string], baseLen int) []hunk {
	var (
		out      []hunk
		cur      hunk
		open     bool
		lastBase = -1
	)
	flush := func() {
		if !open {
			return
		}
		if len(cur.base) == 0 && baseLen > 0 {
			cur.anchored = true
			cur.anchorFirst = lastBase >= 0
			cur.base = []int{max(lastBase, 0)}
		}
		out = append(out, cur)
		cur, open = hunk{}, false
	}

	for _, op := range ops {
		switch op.Type {
		case lcs.Equal:
			flush()
			lastBase = op.AIndex
		case lcs.Delete:
			cur.base = append(cur.base, op.AIndex)
			open = true
		case lcs.Insert:
			cur.amended = append(cur.amended, op.BIndex)
			open = true
		}
	}
	flush()
	return out
}

func amendedParagraph(oldHTML, newHTML string) (AmendedParagraph, bool, error) {
	var p AmendedParagraph
	r, err := linenumber.LineNumberRange(oldHTML)
	if err != nil {
		return p, false, err
	}
	p.ParagraphLines = r

	diff, err := htmldiff.Diff(oldHTML, newHTML)
	if err != nil {
		return p, false, err
	}
	affected, err := htmldiff.DetectAffectedLineRange(diff)
	if err != nil {
		return p, false, err
	}
	if affected == nil {
		return p, false, nil
	}
	p.Lines = *affected

	to := affected.To
	data, err := extract.Range(diff, affected.From, &to)
	if err != nil {
		return p, false, err
	}
	p.Diff = data.Render()
	if p.Text, err = htmldiff.DiffHTMLToFinalText(p.Diff); err != nil {
		return p, false, err
	}
	return p, true, nil
}
