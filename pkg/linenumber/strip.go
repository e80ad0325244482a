package linenumber

import (
	"sort"
	"strconv"
	"strings"

	"github.com/odvcencio/motiontext/pkg/htmltree"
)

// removeMarkers deletes line markers and forced line breaks from the
// subtree of n and joins the text nodes they separated.
func removeMarkers(n *htmltree.Node) {
	for _, m := range n.FindAll(isMarkerOrBreak) {
		m.Detach()
	}
	n.MergeAdjacentText()
}

func isMarkerOrBreak(n *htmltree.Node) bool {
	return htmltree.IsLineNumber(n) || htmltree.IsLineBreak(n)
}

// StripLineNumbers removes all line markers and forced line breaks from
// html. A newline right after a removed marker was most likely inserted by
// an editor and is turned into a space.
func StripLineNumbers(html string) (string, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return "", err
	}
	StripTree(root)
	return htmltree.RenderInner(root), nil
}

// StripTree removes line markers from the subtree of n in place.
func StripTree(n *htmltree.Node) {
	for i := 0; i < len(n.Children); i++ {
		c := n.Children[i]
		if !isMarkerOrBreak(c) {
			StripTree(c)
			continue
		}
		if i+1 < len(n.Children) {
			if next := n.Children[i+1]; next.IsText() && strings.HasPrefix(next.Text, "\n") {
				next.Text = " " + next.Text[1:]
			}
		}
		n.RemoveChild(c)
		i--
	}
}

// LineNumberRange returns the lines present in html. To is the number
// after the largest line.
func LineNumberRange(html string) (Range, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return Range{}, err
	}
	var r Range
	found := false
	for _, m := range root.FindAll(htmltree.IsLineNumber) {
		line, ok := MarkerLine(m)
		if !ok {
			continue
		}
		if !found || line < r.From {
			r.From = line
		}
		if !found || line+1 > r.To {
			r.To = line + 1
		}
		found = true
	}
	if !found {
		return Range{}, ErrNoLineNumbers
	}
	return r, nil
}

// Heading is a section heading together with the line it starts on.
type Heading struct {
	LineNumber int
	Level      int
	Text       string
}

// HeadingsWithLineNumbers returns the numbered H1 to H6 headings of html
// ordered by line.
func HeadingsWithLineNumbers(html string) ([]Heading, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return nil, err
	}
	var headings []Heading
	for _, h := range root.FindAll(isHeading) {
		marker := h.Find(htmltree.IsLineNumber)
		if marker == nil {
			continue
		}
		line, ok := MarkerLine(marker)
		if !ok {
			continue
		}
		level, _ := strconv.Atoi(h.Tag[1:])
		headings = append(headings, Heading{
			LineNumber: line,
			Level:      level,
			Text:       strings.TrimSpace(textWithoutMarkers(h)),
		})
	}
	sort.SliceStable(headings, func(i, j int) bool {
		return headings[i].LineNumber < headings[j].LineNumber
	})
	return headings, nil
}

func isHeading(n *htmltree.Node) bool {
	if n.Type != htmltree.ElementNode || len(n.Tag) != 2 || n.Tag[0] != 'H' {
		return false
	}
	return n.Tag[1] >= '1' && n.Tag[1] <= '6'
}

func textWithoutMarkers(n *htmltree.Node) string {
	var b strings.Builder
	n.Walk(func(c *htmltree.Node) bool {
		if htmltree.IsLineNumber(c) {
			return false
		}
		if htmltree.IsLineBreak(c) {
			b.WriteByte(' ')
		}
		if c.IsText() {
			b.WriteString(c.Text)
		}
		return true
	})
	return b.String()
}

// SplitToParagraphs splits html into its top-level blocks. Every item of a
// top-level list becomes a list of its own; ordered lists keep their
// numbering through the start attribute. Top-level text is dropped.
func SplitToParagraphs(html string) ([]string, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range SplitNodeToParagraphs(root) {
		out = append(out, htmltree.RenderOuter(n))
	}
	return out, nil
}

// SplitNodeToParagraphs is SplitToParagraphs on a parsed tree. List items
// are returned inside detached clones of their list.
func SplitNodeToParagraphs(n *htmltree.Node) []*htmltree.Node {
	var out []*htmltree.Node
	for _, c := range n.Children {
		if c.IsText() {
			continue
		}
		if c.Tag != "UL" && c.Tag != "OL" {
			out = append(out, c)
			continue
		}
		start := 1
		if v, ok := c.Attr("start"); ok {
			if s, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				start = s
			}
		}
		for _, item := range c.Children {
			if item.IsText() {
				continue
			}
			list := c.Clone(false)
			if c.Tag == "OL" {
				list.SetAttr("start", strconv.Itoa(start))
			}
			list.AppendChild(item.Clone(true))
			out = append(out, list)
			start++
		}
	}
	return out
}

// HighlightLine wraps the text of the given line in
// <span class="highlight">. html is returned unchanged when the line is
// not present.
func HighlightLine(html string, line int) (string, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return "", err
	}
	marker := findMarker(root, line)
	if marker == nil {
		return html, nil
	}
	highlightUntilNextLine(marker)
	return htmltree.RenderInner(root), nil
}

func findMarker(root *htmltree.Node, line int) *htmltree.Node {
	class := "line-number-" + strconv.Itoa(line)
	return root.Find(func(n *htmltree.Node) bool {
		return htmltree.IsLineNumber(n) && n.HasClass(class)
	})
}

func highlightUntilNextLine(marker *htmltree.Node) {
	cur := marker
	for cur != nil {
		highlighted := false
		if cur.IsText() {
			span := htmltree.NewElement("SPAN", htmltree.Attr{Key: "class", Val: "highlight"})
			cur.Parent.InsertBefore(span, cur)
			span.AppendChild(cur)
			cur = span
			highlighted = true
		}

		switch {
		case len(cur.Children) > 0 && !htmltree.IsLineNumber(cur) && !highlighted:
			cur = cur.Children[0]
		case cur.NextSibling() != nil:
			cur = cur.NextSibling()
		default:
			cur = nextAunt(cur)
		}

		if cur != nil && htmltree.IsLineNumber(cur) {
			return
		}
	}
}

// nextAunt climbs from n until an ancestor has a following sibling and
// returns that sibling.
func nextAunt(n *htmltree.Node) *htmltree.Node {
	for ; n != nil; n = n.Parent {
		if next := n.NextSibling(); next != nil {
			return next
		}
	}
	return nil
}
