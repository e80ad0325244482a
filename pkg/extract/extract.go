// Package extract cuts a range of display lines out of a line-numbered HTML
// document while keeping the surrounding markup well-formed.
//
// A range may start and end anywhere in the element hierarchy, for example
// in the middle of one list item and inside a nested list of another. The
// extracted Content therefore carries, besides the selected markup, the
// opening and closing tags needed to make it a valid fragment on its own
// and the serialized document before and after the range.
package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/odvcencio/motiontext/pkg/cache"
	"github.com/odvcencio/motiontext/pkg/htmltree"
	"github.com/odvcencio/motiontext/pkg/linenumber"
)

var (
	// ErrInconsistency is returned when a requested line is not present or
	// the document does not have the structure extraction relies on.
	ErrInconsistency = linenumber.ErrInconsistency
	// ErrInvalidArgument is returned for line bounds that cannot describe a
	// range and for input that cannot be parsed.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Content is a range of lines extracted from a document.
//
// Render() yields the range as a standalone fragment. PreviousHTML followed
// by PreviousHTMLEndSnippet is the document up to the range;
// FollowingHTMLStartSnippet followed by FollowingHTML is the document after
// it. Containers cut by a range boundary carry the os-split-before or
// os-split-after class in the contexts and snippets.
type Content struct {
	HTML     string
	Ancestor *htmltree.Node

	OuterContextStart string
	OuterContextEnd   string
	InnerContextStart string
	InnerContextEnd   string

	PreviousHTML              string
	PreviousHTMLEndSnippet    string
	FollowingHTML             string
	FollowingHTMLStartSnippet string
}

// Render returns the extracted range wrapped in its inner and outer context.
func (c *Content) Render() string {
	return c.OuterContextStart + c.InnerContextStart + c.HTML + c.InnerContextEnd + c.OuterContextEnd
}

// clone copies c with a detached copy of its ancestor subtree, so callers
// never share nodes with the cached entry.
func (c *Content) clone() *Content {
	cp := *c
	if c.Ancestor != nil {
		cp.Ancestor = c.Ancestor.Clone(true)
	}
	return &cp
}

func (c *Content) size() int {
	return len(c.HTML) + len(c.OuterContextStart) + len(c.OuterContextEnd) +
		len(c.InnerContextStart) + len(c.InnerContextEnd) +
		len(c.PreviousHTML) + len(c.PreviousHTMLEndSnippet) +
		len(c.FollowingHTML) + len(c.FollowingHTMLStartSnippet)
}

// Range extracts the lines fromLine up to, but not including, toLine from
// the line-numbered html. A nil toLine extends the range to the end of the
// document. Line 0 addresses the start of the document.
func Range(html string, fromLine int, toLine *int) (*Content, error) {
	if fromLine < 0 || (toLine != nil && *toLine < fromLine) {
		return nil, fmt.Errorf("extract lines %d-%s: %w", fromLine, formatLine(toLine), ErrInvalidArgument)
	}

	key := cache.NewKey("extract.range").Int(fromLine).OptionalInt(toLine).String(html).Sum()
	if v, ok := cache.Default().Get(key); ok {
		if c, ok := v.(*Content); ok {
			return c.clone(), nil
		}
	}

	root, err := htmltree.Parse(html)
	if err != nil {
		return nil, fmt.Errorf("extract: %w: %v", ErrInvalidArgument, err)
	}
	c, err := extractTree(root, fromLine, toLine)
	if err != nil {
		return nil, fmt.Errorf("extract lines %d-%s: %w", fromLine, formatLine(toLine), err)
	}

	cache.Default().Set(key, c, int64(c.size()+len(html)))
	return c.clone(), nil
}

func formatLine(line *int) string {
	if line == nil {
		return "end"
	}
	return strconv.Itoa(*line)
}

func extractTree(root *htmltree.Node, fromLine int, toLine *int) (*Content, error) {
	if err := InsertInternalLineMarkers(root); err != nil {
		return nil, err
	}
	InsertInternalLiNumbers(root)

	to := 0
	if toLine != nil {
		to = *toLine
	} else {
		markers := root.FindAll(htmltree.IsLineBreakMarker)
		last, _ := linenumber.MarkerLine(markers[len(markers)-1])
		to = last
	}

	fromNode := lineMarker(root, fromLine)
	if fromNode == nil {
		return nil, fmt.Errorf("line %d not found: %w", fromLine, ErrInconsistency)
	}
	toNode := lineMarker(root, to)
	if toNode == nil {
		return nil, fmt.Errorf("line %d not found: %w", to, ErrInconsistency)
	}

	ancestor, fromRel, toRel := CommonAncestor(fromNode, toNode)
	// An empty range shares its marker as ancestor; use its container.
	if htmltree.IsLineBreakMarker(ancestor) {
		fromRel = []*htmltree.Node{ancestor}
		toRel = []*htmltree.Node{ancestor}
		ancestor = ancestor.Parent
	}
	fromAbs := NodeTrace(fromNode)[1:]
	toAbs := NodeTrace(toNode)[1:]

	c := &Content{Ancestor: ancestor}
	var err error

	// The document around the range is serialized before split classes
	// are added.
	if c.PreviousHTML, err = serializeToChild(root, fromAbs, false); err != nil {
		return nil, err
	}
	if c.FollowingHTML, err = serializeFromChild(root, toAbs, false); err != nil {
		return nil, err
	}

	c.PreviousHTMLEndSnippet = previousEndSnippet(fromNode)
	c.FollowingHTMLStartSnippet = followingStartSnippet(toNode)
	c.InnerContextStart = innerContextStart(fromRel, fromNode)
	c.InnerContextEnd = innerContextEnd(toRel)

	// from == to selects nothing.
	if fromNode != toNode {
		if c.HTML, err = serializeBetween(ancestor, fromRel, toRel); err != nil {
			return nil, err
		}
	}
	c.OuterContextStart, c.OuterContextEnd = outerContext(ancestor, fromNode)
	return c, nil
}

// previousEndSnippet closes every element containing the start marker and
// marks the ones divided by it with os-split-before.
func previousEndSnippet(marker *htmltree.Node) string {
	var b strings.Builder
	split := false
	for cur := marker; cur.Parent != nil; cur = cur.Parent {
		if !htmltree.IsFirstNonEmptyChild(cur.Parent, cur) {
			split = true
		}
		if split && cur.Parent.Type == htmltree.ElementNode {
			cur.Parent.AddClass(htmltree.ClassSplitBefore)
		}
		if !htmltree.IsLineBreakMarker(cur) {
			b.WriteString("</" + cur.Tag + ">")
		}
	}
	return b.String()
}

// followingStartSnippet reopens every element containing the end marker
// and marks the ones divided by it with os-split-after.
func followingStartSnippet(marker *htmltree.Node) string {
	out := ""
	split := false
	for cur := marker; cur.Parent != nil; cur = cur.Parent {
		p := cur.Parent
		if !htmltree.IsFirstNonEmptyChild(p, cur) {
			split = true
		}
		if split && p.Type == htmltree.ElementNode {
			p.AddClass(htmltree.ClassSplitAfter)
		}
		if p.IsElement("OL") {
			out = htmltree.SerializeTag(continuedList(p, marker)) + out
		} else {
			out = htmltree.SerializeTag(p) + out
		}
	}
	return out
}

func innerContextStart(trace []*htmltree.Node, marker *htmltree.Node) string {
	var b strings.Builder
	split := false
	for i, n := range trace {
		if htmltree.IsLineBreakMarker(n) {
			break
		}
		var next *htmltree.Node
		if i+1 < len(trace) {
			next = trace[i+1]
		}
		if next == nil || !htmltree.IsFirstNonEmptyChild(n, next) {
			split = true
		}
		if n.IsElement("OL") {
			b.WriteString(htmltree.SerializeTag(continuedList(n, marker)))
			continue
		}
		if i < len(trace)-1 && split {
			n.AddClass(htmltree.ClassSplitBefore)
		}
		b.WriteString(htmltree.SerializeTag(n))
	}
	return b.String()
}

func innerContextEnd(trace []*htmltree.Node) string {
	out := ""
	for _, n := range trace {
		if htmltree.IsLineBreakMarker(n) {
			break
		}
		out = "</" + n.Tag + ">" + out
	}
	return out
}

// serializeBetween serializes the children of ancestor between the two
// boundary traces, with line numbers stripped.
func serializeBetween(ancestor *htmltree.Node, fromRel, toRel []*htmltree.Node) (string, error) {
	var b strings.Builder
	found := false
	for _, c := range ancestor.Children {
		switch {
		case len(fromRel) > 0 && c == fromRel[0]:
			found = true
			s, err := serializeFromChild(c, fromRel[1:], true)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case len(toRel) > 0 && c == toRel[0]:
			found = false
			s, err := serializeToChild(c, toRel[1:], true)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case found:
			b.WriteString(htmltree.Serialize(c, true))
		}
	}
	return b.String(), nil
}

func outerContext(ancestor, marker *htmltree.Node) (start, end string) {
	for cur := ancestor; cur.Parent != nil; cur = cur.Parent {
		if cur.IsElement("OL") {
			start = htmltree.SerializeTag(continuedList(cur, marker)) + start
		} else {
			start = htmltree.SerializeTag(cur) + start
		}
		end += "</" + cur.Tag + ">"
	}
	return start, end
}

// continuedList returns a shallow copy of ol whose start attribute makes
// its numbering continue at the item containing n.
func continuedList(ol, n *htmltree.Node) *htmltree.Node {
	offset := 0
	if v, ok := ol.Attr("start"); ok {
		if s, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			offset = s - 1
		}
	}
	fake := ol.Clone(false)
	fake.SetAttr("start", strconv.Itoa(NthItem(ol, n)+offset))
	return fake
}

// NthItem returns the 1-based position of the LI of list that contains n,
// counting only LI children. It returns 0 when n is not inside list.
func NthItem(list, n *htmltree.Node) int {
	for cur := n; cur != nil && cur.Parent != nil; cur = cur.Parent {
		if cur.Parent != list {
			continue
		}
		nth := 1
		for _, sib := range list.Children {
			if sib == cur {
				break
			}
			if sib.IsElement("LI") {
				nth++
			}
		}
		return nth
	}
	return 0
}

// CommonAncestor returns the deepest common ancestor of a and b together
// with the paths leading from it down to a and to b. The paths exclude the
// ancestor itself.
func CommonAncestor(a, b *htmltree.Node) (ancestor *htmltree.Node, traceA, traceB []*htmltree.Node) {
	ta := NodeTrace(a)
	tb := NodeTrace(b)
	common := 0
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if ta[i] != tb[i] {
			break
		}
		common = i
	}
	return ta[common], ta[common+1:], tb[common+1:]
}

// NodeTrace returns the chain of nodes from the root of the tree down to n,
// both included.
func NodeTrace(n *htmltree.Node) []*htmltree.Node {
	var trace []*htmltree.Node
	for cur := n; cur != nil; cur = cur.Parent {
		trace = append(trace, cur)
	}
	for i, j := 0, len(trace)-1; i < j; i, j = i+1, j-1 {
		trace[i], trace[j] = trace[j], trace[i]
	}
	return trace
}

// RemoveDuplicateSplitClasses drops os-split-before from list items that
// are not the first item of their list. Rich text editors copy the class
// to every item created by pressing enter in a split item.
func RemoveDuplicateSplitClasses(html string) (string, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return "", fmt.Errorf("remove split classes: %w: %v", ErrInvalidArgument, err)
	}
	for _, li := range root.FindAll(func(n *htmltree.Node) bool {
		return n.IsElement("LI") && n.HasClass(htmltree.ClassSplitBefore)
	}) {
		if !htmltree.IsFirstNonEmptyChild(li.Parent, li) {
			li.RemoveClass(htmltree.ClassSplitBefore)
		}
	}
	return htmltree.Serialize(root, false), nil
}

// FormatWithLineNumbers renders c and numbers its lines starting at
// firstLine.
func FormatWithLineNumbers(c *Content, lineLength, firstLine int) (string, error) {
	return linenumber.Annotate(c.Render(), lineLength, linenumber.WithFirstLine(firstLine))
}
