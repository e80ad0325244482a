package linenumber

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"

	"github.com/odvcencio/motiontext/pkg/htmltree"
)

// breakPoint is the position of the last character a line may be wrapped
// after. offset counts grapheme clusters within node.
type breakPoint struct {
	node   *htmltree.Node
	offset int
}

// traversal holds the state of one numbering pass. A new value is created
// for every top-level call and shared by the recursive descent.
type traversal struct {
	// Characters on the current display line, across inline siblings.
	inlineOffset int
	// Last position suitable for wrapping on the current line, or nil.
	lastBreakable *breakPoint
	// Number of the next line marker.
	lineNumber int
	// Whether markers are emitted at all.
	numbered bool
	// Set on entering a block: its first text starts a new line.
	prepend bool
	// Suppresses one marker after an ignored element already received it.
	ignoreNext bool
	// Whether INS content is skipped for counting.
	ignoreInserted bool
	highlight      int
}

func (t *traversal) isIgnored(n *htmltree.Node) bool {
	if n.Tag == "INS" {
		return t.ignoreInserted
	}
	return htmltree.IsLineNumber(n)
}

// createLineNumber returns the marker for the next line, or nil when the
// marker was already emitted into an ignored element.
func (t *traversal) createLineNumber() *htmltree.Node {
	if t.ignoreNext {
		t.ignoreNext = false
		return nil
	}
	n := Marker(t.lineNumber)
	t.lineNumber++
	return n
}

// appendBreak appends a forced line break and the marker of the new line.
func (t *traversal) appendBreak(out *htmltree.Node) {
	out.AppendChild(LineBreak())
	if t.numbered {
		if ln := t.createLineNumber(); ln != nil {
			out.AppendChild(ln)
		}
	}
}

func (t *traversal) resetLine() {
	t.inlineOffset = 0
	t.lastBreakable = nil
}

// numberElement returns a numbered copy of the element n.
func (t *traversal) numberElement(n *htmltree.Node, length int) (*htmltree.Node, error) {
	if t.isIgnored(n) {
		out := n.Clone(true)
		if t.inlineOffset == 0 && t.numbered {
			if ln := t.createLineNumber(); ln != nil {
				out.InsertBefore(ln, out.FirstChild())
				t.ignoreNext = true
			}
		}
		return out, nil
	}
	if htmltree.IsInline(n) {
		return t.numberInline(n, length)
	}
	return t.numberBlock(n, BlockLength(n, length))
}

func (t *traversal) numberInline(n *htmltree.Node, length int) (*htmltree.Node, error) {
	out := n.Clone(false)
	for _, c := range n.Children {
		switch c.Type {
		case htmltree.TextNode:
			lines, err := t.textToLines(c, length)
			if err != nil {
				return nil, err
			}
			appendAll(out, lines)
		case htmltree.ElementNode:
			if t.overflows(c, length) && htmltree.IsInline(c) {
				t.resetLine()
				t.appendBreak(out)
			}
			changed, err := t.numberElement(c, length)
			if err != nil {
				return nil, err
			}
			moveLeadingLineBreak(changed, out)
			out.AppendChild(changed)
		}
	}
	return out, nil
}

func (t *traversal) numberBlock(n *htmltree.Node, length int) (*htmltree.Node, error) {
	t.resetLine()
	t.prepend = true

	out := n.Clone(false)
	kids := n.Children
	for i, c := range kids {
		switch c.Type {
		case htmltree.TextNode:
			if htmltree.IsWhitespace(c.Text) {
				prevIsBlock := i > 0 && !htmltree.IsInline(kids[i-1])
				nextIsBlock := i < len(kids)-1 && !htmltree.IsInline(kids[i+1])
				if (prevIsBlock && nextIsBlock) || (i == 0 && nextIsBlock) || (i == len(kids)-1 && prevIsBlock) {
					out.AppendChild(htmltree.NewText(c.Text))
					continue
				}
			}
			lines, err := t.textToLines(c, length)
			if err != nil {
				return nil, err
			}
			appendAll(out, lines)
		case htmltree.ElementNode:
			if t.overflows(c, length) && htmltree.IsInline(c) && !t.isIgnored(c) {
				t.resetLine()
				t.appendBreak(out)
			}
			changed, err := t.numberElement(c, length)
			if err != nil {
				return nil, err
			}
			moveLeadingLineBreak(changed, out)
			out.AppendChild(changed)
		}
	}

	t.resetLine()
	t.prepend = true
	t.ignoreNext = false
	return out, nil
}

// overflows reports whether the first word of the element c would not fit
// on the current, non-empty line.
func (t *traversal) overflows(c *htmltree.Node, length int) bool {
	return t.inlineOffset > 0 && t.inlineOffset+firstWordLength(c) > length
}

func firstWordLength(n *htmltree.Node) int {
	first := n.FirstChild()
	if first == nil {
		return 0
	}
	if first.Type == htmltree.TextNode {
		word, _, _ := strings.Cut(first.Text, " ")
		return graphemeCount(word)
	}
	return firstWordLength(first)
}

// moveLeadingLineBreak moves a forced line break or a line marker that
// starts the inline element inner to the end of outer, so that it precedes
// the element.
func moveLeadingLineBreak(inner, outer *htmltree.Node) {
	if !htmltree.IsInline(inner) {
		return
	}
	first := inner.FirstChild()
	if first == nil {
		return
	}
	if htmltree.IsLineBreak(first) || htmltree.IsLineNumber(first) {
		outer.AppendChild(first)
	}
}

func appendAll(parent *htmltree.Node, nodes []*htmltree.Node) {
	for _, n := range nodes {
		parent.AppendChild(n)
	}
}

// textToLines splits the text node n into lines of at most length
// characters and returns the new text nodes interleaved with line breaks
// and markers. Spaces may exceed the budget. A line is wrapped after the
// last space, hyphen or newline, which may lie in a text node already
// emitted; without one it is wrapped before the current character.
func (t *traversal) textToLines(n *htmltree.Node, length int) ([]*htmltree.Node, error) {
	if n.Text == "\n" {
		return []*htmltree.Node{htmltree.NewText("\n")}, nil
	}

	var out []*htmltree.Node
	firstLine := true
	addLine := func(text string) *htmltree.Node {
		textNode := htmltree.NewText(text)
		lineNode := textNode
		if firstLine {
			if t.highlight > 0 && t.highlight == t.lineNumber-1 {
				lineNode = highlightSpan(textNode)
			}
			firstLine = false
		} else {
			if t.highlight > 0 && t.highlight == t.lineNumber {
				lineNode = highlightSpan(textNode)
			}
			out = append(out, LineBreak())
			if t.numbered {
				if ln := t.createLineNumber(); ln != nil {
					out = append(out, ln)
				}
			}
		}
		out = append(out, lineNode)
		return textNode
	}

	if t.inlineOffset >= length {
		// A previous inline element ended exactly at the end of the line.
		out = append(out, LineBreak())
		if t.numbered {
			if ln := t.createLineNumber(); ln != nil {
				out = append(out, ln)
			}
		}
		t.resetLine()
	} else if t.prepend {
		if t.ignoreNext {
			t.ignoreNext = false
		} else if t.numbered {
			out = append(out, t.createLineNumber())
		}
	}
	t.prepend = false

	chars := splitGraphemes(n.Text)
	lineStart := 0
	for i, ch := range chars {
		var breakAt *breakPoint
		if t.inlineOffset >= length {
			if t.lastBreakable != nil {
				breakAt = t.lastBreakable
			} else {
				breakAt = &breakPoint{node: n, offset: i - 1}
			}
		}
		if breakAt != nil && !isSpace(ch) {
			if breakAt.node == n {
				addLine(strings.Join(chars[lineStart:breakAt.offset+1], ""))
				lineStart = breakAt.offset + 1
				t.inlineOffset = i - breakAt.offset - 1
			} else {
				remainder := graphemeCount(breakAt.node.Text) - breakAt.offset - 1
				if err := t.breakPreviousNode(breakAt.node, breakAt.offset); err != nil {
					return nil, err
				}
				t.inlineOffset = i + remainder
			}
			t.lastBreakable = nil
		}
		if isBreakable(ch) {
			t.lastBreakable = &breakPoint{node: n, offset: i}
		}
		t.inlineOffset++
	}

	last := addLine(strings.Join(chars[lineStart:], ""))
	if t.lastBreakable != nil && t.lastBreakable.node == n {
		t.lastBreakable = &breakPoint{node: last, offset: t.lastBreakable.offset - lineStart}
	}
	return out, nil
}

// breakPreviousNode wraps the line inside an already emitted text node
// after the character at offset.
func (t *traversal) breakPreviousNode(n *htmltree.Node, offset int) error {
	parent := n.Parent
	if parent == nil {
		return ErrInconsistency
	}
	chars := splitGraphemes(n.Text)
	if offset+1 > len(chars) {
		return ErrInconsistency
	}
	first := htmltree.NewText(strings.Join(chars[:offset+1], ""))
	parent.InsertBefore(first, n)
	parent.InsertBefore(LineBreak(), n)
	if t.numbered {
		if ln := t.createLineNumber(); ln != nil {
			parent.InsertBefore(ln, n)
		}
	}
	n.Text = strings.Join(chars[offset+1:], "")
	return nil
}

func highlightSpan(text *htmltree.Node) *htmltree.Node {
	span := htmltree.NewElement("SPAN", htmltree.Attr{Key: "class", Val: "highlight"})
	span.AppendChild(text)
	return span
}

func isSpace(ch string) bool {
	return ch == " " || ch == "\n" || ch == "\r\n"
}

func isBreakable(ch string) bool {
	return ch == " " || ch == "-" || ch == "\n" || ch == "\r\n"
}

func splitGraphemes(s string) []string {
	var out []string
	iter := graphemes.FromString(s)
	for iter.Next() {
		out = append(out, iter.Value())
	}
	return out
}

func graphemeCount(s string) int {
	n := 0
	iter := graphemes.FromString(s)
	for iter.Next() {
		n++
	}
	return n
}
