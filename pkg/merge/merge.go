// Package merge replaces a range of lines in a line-numbered document with
// new content and joins the pieces back into one tree.
package merge

import (
	"fmt"
	"strings"

	"github.com/odvcencio/motiontext/pkg/extract"
	"github.com/odvcencio/motiontext/pkg/htmltree"
)

// boundary marks the exact end of the document before the range and the
// start of the document after it. Merging never joins it with real content.
const boundary = "<TEMPLATE></TEMPLATE>"

// MergeNodeArrays joins two node sequences. When the last node of a and the
// first node of b are both text, their text is concatenated. When they are
// elements with the same tag, they become one element whose children are
// merged the same way and the attributes of a are kept, so a continued OL
// keeps its original start. Whitespace between list
// items is dropped when lists are merged. The nodes are moved, not copied.
func MergeNodeArrays(a, b []*htmltree.Node) []*htmltree.Node {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}

	out := append([]*htmltree.Node(nil), a[:len(a)-1]...)
	last, first := a[len(a)-1], b[0]

	switch {
	case last.IsText() && first.IsText():
		out = append(out, htmltree.NewText(last.Text+first.Text))
	case last.Type == htmltree.ElementNode && first.Type == htmltree.ElementNode && last.Tag == first.Tag:
		joined := htmltree.NewElement(last.Tag)
		for _, attr := range last.Attrs {
			joined.SetAttr(attr.Key, attr.Val)
		}
		var lastChildren, firstChildren []*htmltree.Node
		if last.Tag == "OL" || last.Tag == "UL" {
			lastChildren = elements(last.Children)
			firstChildren = elements(first.Children)
		} else {
			lastChildren = append(lastChildren, last.Children...)
			firstChildren = append(firstChildren, first.Children...)
		}
		for _, c := range MergeNodeArrays(lastChildren, firstChildren) {
			joined.AppendChild(c)
		}
		out = append(out, joined)
	default:
		if !last.IsElement("TEMPLATE") {
			out = append(out, last)
		}
		if !first.IsElement("TEMPLATE") {
			out = append(out, first)
		}
	}

	return append(out, b[1:]...)
}

func elements(nodes []*htmltree.Node) []*htmltree.Node {
	var out []*htmltree.Node
	for _, n := range nodes {
		if n.Type == htmltree.ElementNode {
			out = append(out, n)
		}
	}
	return out
}

// ReplaceLines replaces the lines fromLine up to, but not including, toLine
// of the line-numbered originalHTML with newHTML. A nil toLine replaces up
// to the end of the document. The result carries no line numbers.
func ReplaceLines(originalHTML, newHTML string, fromLine int, toLine *int) (string, error) {
	data, err := extract.Range(originalHTML, fromLine, toLine)
	if err != nil {
		return "", fmt.Errorf("replace lines: %w", err)
	}
	previous, following, err := surroundings(data)
	if err != nil {
		return "", fmt.Errorf("replace lines: %w", err)
	}
	replacement, err := htmltree.ParseNodes(newHTML)
	if err != nil {
		return "", fmt.Errorf("replace lines: %w", err)
	}

	if strings.HasSuffix(data.HTML, " ") {
		holder := htmltree.NewFragment()
		for _, n := range replacement {
			holder.AppendChild(n)
		}
		insertDanglingSpace(holder)
		replacement = append([]*htmltree.Node(nil), holder.Children...)
	}

	merged := MergeNodeArrays(previous, replacement)
	merged = MergeNodeArrays(merged, following)

	root := htmltree.NewFragment()
	for _, n := range merged {
		root.AppendChild(n)
	}
	removeBoundaries(root)
	for _, n := range root.FindAll(func(n *htmltree.Node) bool {
		return n.HasClass(htmltree.ClassSplitBefore) || n.HasClass(htmltree.ClassSplitAfter)
	}) {
		n.RemoveClass(htmltree.ClassSplitBefore)
		n.RemoveClass(htmltree.ClassSplitAfter)
	}
	return htmltree.Serialize(root, true), nil
}

// Formatter renders the replacement of the extracted range old by new,
// typically as diff markup. Both arguments are parsed fragments.
type Formatter func(old, new *htmltree.Node) (*htmltree.Node, error)

// AddDiffMarkup is like ReplaceLines, but the range is replaced by the
// output of format instead of being merged with its surroundings.
func AddDiffMarkup(originalHTML, newHTML string, fromLine int, toLine *int, format Formatter) (string, error) {
	data, err := extract.Range(originalHTML, fromLine, toLine)
	if err != nil {
		return "", fmt.Errorf("add diff markup: %w", err)
	}
	previous, following, err := surroundings(data)
	if err != nil {
		return "", fmt.Errorf("add diff markup: %w", err)
	}
	oldRoot, err := htmltree.Parse(data.Render())
	if err != nil {
		return "", fmt.Errorf("add diff markup: %w", err)
	}
	newRoot, err := htmltree.Parse(newHTML)
	if err != nil {
		return "", fmt.Errorf("add diff markup: %w", err)
	}
	diffRoot, err := format(oldRoot, newRoot)
	if err != nil {
		return "", fmt.Errorf("add diff markup: %w", err)
	}

	root := htmltree.NewFragment()
	for _, n := range previous {
		root.AppendChild(n)
	}
	for len(diffRoot.Children) > 0 {
		root.AppendChild(diffRoot.Children[0])
	}
	for _, n := range following {
		root.AppendChild(n)
	}
	removeBoundaries(root)
	return htmltree.Serialize(root, true), nil
}

// surroundings parses the document before and after the extracted range,
// each with a boundary element where the range was.
func surroundings(data *extract.Content) (previous, following []*htmltree.Node, err error) {
	previous, err = htmltree.ParseNodes(data.PreviousHTML + boundary + data.PreviousHTMLEndSnippet)
	if err != nil {
		return nil, nil, err
	}
	following, err = htmltree.ParseNodes(data.FollowingHTMLStartSnippet + boundary + data.FollowingHTML)
	if err != nil {
		return nil, nil, err
	}
	return previous, following, nil
}

func removeBoundaries(root *htmltree.Node) {
	for _, n := range root.FindAll(func(n *htmltree.Node) bool { return n.IsElement("TEMPLATE") }) {
		n.Detach()
	}
}

// insertDanglingSpace makes the last text of n end with a space, so that
// the replacement does not run into the first word after the range.
func insertDanglingSpace(n *htmltree.Node) {
	if len(n.Children) == 0 {
		return
	}
	last := n.Children[len(n.Children)-1]
	if last.IsText() && htmltree.IsWhitespace(last.Text) && len(n.Children) > 1 {
		last = n.Children[len(n.Children)-2]
	}
	if last.IsText() {
		if last.Text == "" || !strings.HasSuffix(last.Text, " ") {
			last.Text += " "
		}
		return
	}
	insertDanglingSpace(last)
}
