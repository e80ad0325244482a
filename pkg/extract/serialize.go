package extract

import (
	"fmt"
	"strings"

	"github.com/odvcencio/motiontext/pkg/htmltree"
)

func isMarkup(n *htmltree.Node) bool {
	return htmltree.IsLineNumber(n) || htmltree.IsLineBreak(n) || htmltree.IsLineBreakMarker(n)
}

// serializeToChild serializes n up to the node at the end of trace, which
// leads from a child of n down to a boundary marker. Elements on the trace
// are opened but not closed.
func serializeToChild(n *htmltree.Node, trace []*htmltree.Node, strip bool) (string, error) {
	if isMarkup(n) {
		return "", nil
	}
	if len(trace) == 0 {
		return "", fmt.Errorf("serialize to marker in %s: trace exhausted: %w", n.Tag, ErrInconsistency)
	}

	var b strings.Builder
	b.WriteString(htmltree.SerializeTag(n))
	for _, c := range n.Children {
		if c == trace[0] {
			if !htmltree.IsLineNumber(c) {
				s, err := serializeToChild(c, trace[1:], strip)
				if err != nil {
					return "", err
				}
				b.WriteString(s)
			}
			return b.String(), nil
		}
		b.WriteString(htmltree.Serialize(c, strip))
	}
	return "", fmt.Errorf("serialize to marker in %s: trace node not found: %w", n.Tag, ErrInconsistency)
}

// serializeFromChild serializes n starting at the node at the end of trace.
// Elements on the trace are closed but not opened.
func serializeFromChild(n *htmltree.Node, trace []*htmltree.Node, strip bool) (string, error) {
	if isMarkup(n) {
		return "", nil
	}
	if len(trace) == 0 {
		return "", fmt.Errorf("serialize from marker in %s: trace exhausted: %w", n.Tag, ErrInconsistency)
	}

	var b strings.Builder
	found := false
	for _, c := range n.Children {
		if !found {
			if c != trace[0] {
				continue
			}
			found = true
			if !htmltree.IsLineNumber(c) {
				s, err := serializeFromChild(c, trace[1:], strip)
				if err != nil {
					return "", err
				}
				b.WriteString(s)
			}
			continue
		}
		b.WriteString(htmltree.Serialize(c, strip))
	}
	if !found {
		return "", fmt.Errorf("serialize from marker in %s: trace node not found: %w", n.Tag, ErrInconsistency)
	}
	if n.Type == htmltree.ElementNode {
		b.WriteString("</" + n.Tag + ">")
	}
	return b.String(), nil
}
