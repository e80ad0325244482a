package htmltree

import (
	"strings"
	"unicode"
)

// NodeType classifies a node in a document tree.
type NodeType int

const (
	TextNode     NodeType = iota // Node owns a character sequence.
	ElementNode                  // Node has a tag, attributes and children.
	FragmentNode                 // Parse root; never serialized itself.
)

// Attr is a single attribute. Keys are lowercase, as produced by the parser.
type Attr struct {
	Key string
	Val string
}

// Node is an element, text or fragment node. Tag names of elements are
// stored uppercase. Parent pointers are maintained by the mutating methods.
type Node struct {
	Type     NodeType
	Tag      string
	Attrs    []Attr
	Text     string
	Parent   *Node
	Children []*Node
}

// NewText returns a detached text node.
func NewText(s string) *Node {
	return &Node{Type: TextNode, Text: s}
}

// NewElement returns a detached element with the given tag and attributes.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Type: ElementNode, Tag: strings.ToUpper(tag), Attrs: attrs}
}

// NewFragment returns an empty fragment node.
func NewFragment() *Node {
	return &Node{Type: FragmentNode}
}

// IsElement reports whether n is an element with the given uppercase tag.
// An empty tag matches any element.
func (n *Node) IsElement(tag string) bool {
	if n == nil || n.Type != ElementNode {
		return false
	}
	return tag == "" || n.Tag == tag
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n != nil && n.Type == TextNode
}

// Attr returns the value of the attribute key.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key to val, keeping the position of an existing attribute.
func (n *Node) SetAttr(key, val string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

// RemoveAttr deletes the attribute key if present.
func (n *Node) RemoveAttr(key string) {
	out := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attrs = out
}

// Classes returns the CSS classes of n in document order.
func (n *Node) Classes() []string {
	v, _ := n.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether n carries the CSS class c.
func (n *Node) HasClass(c string) bool {
	if n == nil || n.Type != ElementNode {
		return false
	}
	for _, have := range n.Classes() {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass appends the CSS class c unless n already carries it.
func (n *Node) AddClass(c string) {
	if n.HasClass(c) {
		return
	}
	classes := append(n.Classes(), c)
	n.SetAttr("class", strings.Join(classes, " "))
}

// RemoveClass removes the CSS class c. The class attribute is dropped once
// it is empty.
func (n *Node) RemoveClass(c string) {
	if !n.HasClass(c) {
		return
	}
	var keep []string
	for _, have := range n.Classes() {
		if have != c {
			keep = append(keep, have)
		}
	}
	if len(keep) == 0 {
		n.RemoveAttr("class")
		return
	}
	n.SetAttr("class", strings.Join(keep, " "))
}

// FirstChild returns the first child of n or nil.
func (n *Node) FirstChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// LastChild returns the last child of n or nil.
func (n *Node) LastChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// Index returns the position of n within its parent, or -1 when detached.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// PrevSibling returns the sibling preceding n or nil.
func (n *Node) PrevSibling() *Node {
	i := n.Index()
	if i <= 0 {
		return nil
	}
	return n.Parent.Children[i-1]
}

// NextSibling returns the sibling following n or nil.
func (n *Node) NextSibling() *Node {
	i := n.Index()
	if i < 0 || i+1 >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[i+1]
}

// Detach removes n from its parent.
func (n *Node) Detach() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// AppendChild adds c as the last child of n, detaching it first.
func (n *Node) AppendChild(c *Node) {
	c.Detach()
	c.Parent = n
	n.Children = append(n.Children, c)
}

// InsertBefore inserts c before ref. A nil ref appends.
func (n *Node) InsertBefore(c, ref *Node) {
	if ref == nil {
		n.AppendChild(c)
		return
	}
	c.Detach()
	i := ref.Index()
	if i < 0 || ref.Parent != n {
		n.AppendChild(c)
		return
	}
	c.Parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// InsertAfter inserts c right after ref.
func (n *Node) InsertAfter(c, ref *Node) {
	if ref == nil {
		n.InsertBefore(c, n.FirstChild())
		return
	}
	n.InsertBefore(c, ref.NextSibling())
}

// RemoveChild detaches c from n.
func (n *Node) RemoveChild(c *Node) {
	for i, have := range n.Children {
		if have == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return
		}
	}
}

// ReplaceWith puts the given nodes at the position of n and detaches n.
func (n *Node) ReplaceWith(nodes ...*Node) {
	p := n.Parent
	if p == nil {
		return
	}
	for _, c := range nodes {
		p.InsertBefore(c, n)
	}
	p.RemoveChild(n)
}

// Clone copies n. When deep is set the children are copied as well.
// The clone is detached.
func (n *Node) Clone(deep bool) *Node {
	c := &Node{Type: n.Type, Tag: n.Tag, Text: n.Text}
	if len(n.Attrs) > 0 {
		c.Attrs = append([]Attr(nil), n.Attrs...)
	}
	if deep {
		for _, child := range n.Children {
			c.AppendChild(child.Clone(true))
		}
	}
	return c
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range append([]*Node(nil), n.Children...) {
		c.Walk(fn)
	}
}

// FindAll returns every descendant of n (n included) matching pred, in
// document order.
func (n *Node) FindAll(pred func(*Node) bool) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Find returns the first node matching pred in document order.
func (n *Node) Find(pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// TextContent concatenates the text of all descendant text nodes.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Type == TextNode {
			b.WriteString(c.Text)
		}
		return true
	})
	return b.String()
}

// MergeAdjacentText joins neighbouring text nodes and drops empty ones
// throughout the subtree.
func (n *Node) MergeAdjacentText() {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == TextNode {
			if c.Text == "" {
				c.Parent = nil
				continue
			}
			if len(out) > 0 && out[len(out)-1].Type == TextNode {
				out[len(out)-1].Text += c.Text
				c.Parent = nil
				continue
			}
		} else {
			c.MergeAdjacentText()
		}
		out = append(out, c)
	}
	n.Children = out
}

// IsWhitespace reports whether s consists only of whitespace (non-breaking
// spaces included).
func IsWhitespace(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// IsFirstNonEmptyChild reports whether child is the first child of parent
// that is not a whitespace-only text node.
func IsFirstNonEmptyChild(parent, child *Node) bool {
	for _, c := range parent.Children {
		if c == child {
			return true
		}
		if c.Type != TextNode || !IsWhitespace(c.Text) {
			return false
		}
	}
	return false
}

var inlineTags = map[string]bool{
	"SPAN": true, "A": true, "EM": true, "S": true, "B": true, "I": true,
	"STRONG": true, "U": true, "BIG": true, "SMALL": true, "SUB": true,
	"SUP": true, "TT": true, "INS": true, "DEL": true, "STRIKE": true,
}

// IsInline reports whether n is an element laid out inline for line
// numbering purposes.
func IsInline(n *Node) bool {
	return n.Type == ElementNode && inlineTags[n.Tag]
}

// Line marker classes.
const (
	ClassLineNumber  = "os-line-number"
	ClassLineBreak   = "os-line-break"
	ClassSplitBefore = "os-split-before"
	ClassSplitAfter  = "os-split-after"
)

// TagLineBreakMarker is the tag of the internal markers derived from line
// numbers during extraction.
const TagLineBreakMarker = "OS-LINEBREAK"

// IsLineNumber reports whether n is a line number marker span.
func IsLineNumber(n *Node) bool {
	return n.IsElement("SPAN") && n.HasClass(ClassLineNumber)
}

// IsLineBreak reports whether n is a forced line break inserted by the
// numbering engine.
func IsLineBreak(n *Node) bool {
	return n.IsElement("BR") && n.HasClass(ClassLineBreak)
}

// IsLineBreakMarker reports whether n is an internal extraction marker.
func IsLineBreakMarker(n *Node) bool {
	return n.IsElement(TagLineBreakMarker)
}
