package htmltree

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML fragment as the content of a <div> element and
// returns it below a FragmentNode. Comments and doctypes are dropped.
func Parse(s string) (*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(s), context)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	root := NewFragment()
	for _, n := range nodes {
		if c := convert(n); c != nil {
			root.AppendChild(c)
		}
	}
	return root, nil
}

// MustParse is like Parse but panics on error. Parsing from a string only
// fails on reader errors, so this is safe for literals in tests and
// internal templates.
func MustParse(s string) *Node {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// ParseNodes parses s and returns the detached top-level nodes.
func ParseNodes(s string) ([]*Node, error) {
	root, err := Parse(s)
	if err != nil {
		return nil, err
	}
	nodes := append([]*Node(nil), root.Children...)
	for _, n := range nodes {
		n.Parent = nil
	}
	return nodes, nil
}

func convert(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		return NewText(n.Data)
	case html.ElementNode:
		el := &Node{Type: ElementNode, Tag: strings.ToUpper(n.Data)}
		for _, a := range n.Attr {
			el.Attrs = append(el.Attrs, Attr{Key: a.Key, Val: a.Val})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c); child != nil {
				el.AppendChild(child)
			}
		}
		return el
	default:
		return nil
	}
}
