package extract

import (
	"fmt"
	"strconv"

	"github.com/odvcencio/motiontext/pkg/htmltree"
	"github.com/odvcencio/motiontext/pkg/linenumber"
)

// InsertInternalLineMarkers places an OS-LINEBREAK element in front of the
// outermost element that starts with each line number marker, so that a
// line starting a paragraph or list item is addressed before that element.
// Markers for line 0 and for the line after the last one are added at the
// start and the end of root. Nothing is done if root already carries
// internal markers.
func InsertInternalLineMarkers(root *htmltree.Node) error {
	if root.Find(htmltree.IsLineBreakMarker) != nil {
		return nil
	}

	spans := root.FindAll(htmltree.IsLineNumber)
	if len(spans) == 0 {
		return fmt.Errorf("%w: %w", ErrInconsistency, linenumber.ErrNoLineNumbers)
	}

	maxLine := 0
	for _, span := range spans {
		line, ok := linenumber.MarkerLine(span)
		if !ok {
			continue
		}
		if line > maxLine {
			maxLine = line
		}
		node := span
		for node.Parent != nil && node.Parent != root && htmltree.IsFirstNonEmptyChild(node.Parent, node) {
			node = node.Parent
		}
		node.Parent.InsertBefore(internalMarker(line), node)
	}

	root.InsertBefore(internalMarker(0), root.FirstChild())
	root.AppendChild(internalMarker(maxLine + 1))
	return nil
}

func internalMarker(line int) *htmltree.Node {
	num := strconv.Itoa(line)
	return htmltree.NewElement(htmltree.TagLineBreakMarker,
		htmltree.Attr{Key: "class", Val: htmltree.ClassLineNumber + " line-number-" + num},
		htmltree.Attr{Key: "data-line-number", Val: num},
	)
}

// InsertInternalLiNumbers records the 1-based position of every item of an
// ordered list in its os-li-number attribute. The attribute is never
// serialized.
func InsertInternalLiNumbers(root *htmltree.Node) {
	for _, ol := range root.FindAll(func(n *htmltree.Node) bool { return n.IsElement("OL") }) {
		nth := 1
		for _, c := range ol.Children {
			if c.IsElement("LI") {
				c.SetAttr(htmltree.AttrLiNumber, strconv.Itoa(nth))
				nth++
			}
		}
	}
}

func lineMarker(root *htmltree.Node, line int) *htmltree.Node {
	class := "line-number-" + strconv.Itoa(line)
	return root.Find(func(n *htmltree.Node) bool {
		return htmltree.IsLineBreakMarker(n) && n.HasClass(class)
	})
}
