package htmltree

import (
	"strings"
)

// AttrLiNumber is the internal ordinal assigned to list items during
// extraction. It is never serialized.
const AttrLiNumber = "os-li-number"

var voidTags = map[string]bool{
	"AREA": true, "BASE": true, "BR": true, "COL": true, "EMBED": true,
	"HR": true, "IMG": true, "INPUT": true, "LINK": true, "META": true,
	"PARAM": true, "SOURCE": true, "TRACK": true, "WBR": true,
}

var rawTextTags = map[string]bool{
	"STYLE": true, "SCRIPT": true, "XMP": true, "IFRAME": true,
	"NOEMBED": true, "NOFRAMES": true, "PLAINTEXT": true,
}

// IsVoid reports whether elements with this tag have no end tag.
func IsVoid(tag string) bool {
	return voidTags[strings.ToUpper(tag)]
}

var (
	innerTextEscaper = strings.NewReplacer("&", "&amp;", "\u00a0", "&nbsp;", "<", "&lt;", ">", "&gt;")
	innerAttrEscaper = strings.NewReplacer("&", "&amp;", "\u00a0", "&nbsp;", `"`, "&quot;")
	textEscaper      = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper      = strings.NewReplacer("&", "&amp;", `"`, "&quot;")
)

// RenderInner renders the children of n the way a browser renders
// innerHTML: lowercase tag names, void elements without end tags, and
// non-breaking spaces as &nbsp;.
func RenderInner(n *Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		renderOuter(&b, c)
	}
	return b.String()
}

// RenderOuter renders n itself like RenderInner renders children.
func RenderOuter(n *Node) string {
	var b strings.Builder
	renderOuter(&b, n)
	return b.String()
}

func renderOuter(b *strings.Builder, n *Node) {
	switch n.Type {
	case TextNode:
		if n.Parent != nil && rawTextTags[n.Parent.Tag] {
			b.WriteString(n.Text)
			return
		}
		b.WriteString(innerTextEscaper.Replace(n.Text))
	case FragmentNode:
		for _, c := range n.Children {
			renderOuter(b, c)
		}
	case ElementNode:
		tag := strings.ToLower(n.Tag)
		b.WriteByte('<')
		b.WriteString(tag)
		for _, a := range n.Attrs {
			b.WriteByte(' ')
			b.WriteString(a.Key)
			b.WriteString(`="`)
			b.WriteString(innerAttrEscaper.Replace(a.Val))
			b.WriteByte('"')
		}
		b.WriteByte('>')
		if voidTags[n.Tag] {
			return
		}
		for _, c := range n.Children {
			renderOuter(b, c)
		}
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteByte('>')
	}
}

// SerializeTag returns the opening tag of n with uppercase tag name and the
// attributes in document order. Fragments and text nodes yield "".
func SerializeTag(n *Node) string {
	if n.Type != ElementNode {
		return ""
	}
	var b strings.Builder
	writeTag(&b, n)
	return b.String()
}

func writeTag(b *strings.Builder, n *Node) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		if a.Key == AttrLiNumber {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

// EscapeText escapes s for use as element content in serialized output.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// Serialize renders n with uppercase tag names. Internal line break markers
// are never written; line number markers and forced line breaks are dropped
// when stripLineNumbers is set. A fragment renders as its children.
func Serialize(n *Node, stripLineNumbers bool) string {
	var b strings.Builder
	serialize(&b, n, stripLineNumbers)
	return b.String()
}

// SerializeNodes concatenates the serialization of every node in nodes.
func SerializeNodes(nodes []*Node, stripLineNumbers bool) string {
	var b strings.Builder
	for _, n := range nodes {
		serialize(&b, n, stripLineNumbers)
	}
	return b.String()
}

func serialize(b *strings.Builder, n *Node, strip bool) {
	switch n.Type {
	case TextNode:
		b.WriteString(textEscaper.Replace(n.Text))
		return
	case FragmentNode:
		for _, c := range n.Children {
			serialize(b, c, strip)
		}
		return
	}
	if strip && (IsLineNumber(n) || IsLineBreak(n)) {
		return
	}
	if IsLineBreakMarker(n) {
		return
	}
	writeTag(b, n)
	if voidTags[n.Tag] {
		return
	}
	for _, c := range n.Children {
		serialize(b, c, strip)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
