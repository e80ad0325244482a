// Package linenumber annotates HTML fragments with display line numbers.
//
// Every display line starts with a marker span
//
//	<span class="os-line-number line-number-N" data-line-number="N" contenteditable="false">&nbsp;</span>
//
// and lines wrapped by the engine are separated by <br class="os-line-break">.
// The number of characters per line is bounded by a line length that block
// elements reduce according to their indentation.
package linenumber

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/odvcencio/motiontext/pkg/cache"
	"github.com/odvcencio/motiontext/pkg/htmltree"
)

var (
	// ErrInconsistency indicates that a document did not have the structure
	// an operation relied on, for example a requested line that is not
	// present or a node detached from the tree during processing.
	ErrInconsistency = errors.New("inconsistent document structure")
	// ErrNoLineNumbers indicates that a document carries no line markers.
	ErrNoLineNumbers = errors.New("no line numbers")
)

// Range is a range of display lines. To is exclusive: it names the first
// line after the range.
type Range struct {
	From int
	To   int
}

type options struct {
	highlight int
	firstLine int
}

// Option configures Annotate.
type Option func(*options)

// WithHighlight wraps the text of the given line in <span class="highlight">.
func WithHighlight(line int) Option {
	return func(o *options) { o.highlight = line }
}

// WithFirstLine sets the number of the first line. The default is 1.
func WithFirstLine(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.firstLine = n
		}
	}
}

var reBrNewlines = regexp.MustCompile(`(?i)(<br[^>]*>)[\n\r]+`)

// Annotate inserts line markers into html so that no line exceeds
// lineLength characters. Markers already present are replaced, so
// annotating annotated output yields the same result.
func Annotate(html string, lineLength int, opts ...Option) (string, error) {
	o := options{firstLine: 1}
	for _, opt := range opts {
		opt(&o)
	}

	var key cache.Key
	if o.highlight <= 0 {
		key = cache.NewKey("linenumber.annotate").Int(o.firstLine).Int(lineLength).String(html).Sum()
		if cached, ok := cache.Default().GetString(key); ok {
			return cached, nil
		}
	}

	root, err := AnnotateTree(html, lineLength, opts...)
	if err != nil {
		return "", err
	}
	out := htmltree.RenderInner(root)
	if o.highlight <= 0 {
		cache.Default().SetString(key, out)
	}
	return out, nil
}

// AnnotateTree is like Annotate but returns the numbered tree. The result
// is a DIV element holding the numbered content.
func AnnotateTree(html string, lineLength int, opts ...Option) (*htmltree.Node, error) {
	o := options{firstLine: 1}
	for _, opt := range opts {
		opt(&o)
	}

	html = reBrNewlines.ReplaceAllString(html, "$1")
	root, err := parseRoot(html)
	if err != nil {
		return nil, err
	}
	removeMarkers(root)

	t := &traversal{
		lineNumber:     o.firstLine,
		numbered:       true,
		highlight:      o.highlight,
		prepend:        true,
		ignoreInserted: true,
	}
	out, err := t.numberElement(root, lineLength)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	return out, nil
}

// InsertLineBreaksWithoutNumbers wraps html at lineLength using forced line
// breaks only. Content of INS elements is counted when countInserted is set.
func InsertLineBreaksWithoutNumbers(html string, lineLength int, countInserted bool) (string, error) {
	root, err := parseRoot(html)
	if err != nil {
		return "", err
	}
	t := &traversal{
		prepend:        true,
		ignoreInserted: !countInserted,
	}
	out, err := t.numberElement(root, lineLength)
	if err != nil {
		return "", fmt.Errorf("insert line breaks: %w", err)
	}
	return htmltree.RenderInner(out), nil
}

// parseRoot parses html into a detached DIV element.
func parseRoot(html string) (*htmltree.Node, error) {
	frag, err := htmltree.Parse(html)
	if err != nil {
		return nil, err
	}
	root := htmltree.NewElement("DIV")
	for _, c := range append([]*htmltree.Node(nil), frag.Children...) {
		root.AppendChild(c)
	}
	return root, nil
}

// BlockLength returns the line length available inside the block element n
// when its container allows length characters.
func BlockLength(n *htmltree.Node, length int) int {
	l := float64(length)
	switch n.Tag {
	case "LI":
		l -= 5
	case "BLOCKQUOTE":
		l -= 20
	case "DIV", "P":
		if style, ok := n.Attr("style"); ok && style != "" {
			padding := leadingInt(after(style, "padding-left:")) + leadingInt(after(style, "padding-right:"))
			l -= float64(padding) / 5
		}
	case "H1":
		l *= 0.66
	case "H2":
		l *= 0.75
	case "H3":
		l *= 0.85
	}
	return int(math.Ceil(l))
}

func after(s, sep string) string {
	_, rest, found := strings.Cut(s, sep)
	if !found {
		return ""
	}
	return rest
}

// leadingInt parses the integer at the start of s, ignoring leading
// whitespace and trailing units. Anything unparsable is 0.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n")
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}

// Marker returns a new line number marker for line n.
func Marker(n int) *htmltree.Node {
	num := strconv.Itoa(n)
	span := htmltree.NewElement("SPAN",
		htmltree.Attr{Key: "class", Val: htmltree.ClassLineNumber + " line-number-" + num},
		htmltree.Attr{Key: "data-line-number", Val: num},
		htmltree.Attr{Key: "contenteditable", Val: "false"},
	)
	span.AppendChild(htmltree.NewText("\u00a0"))
	return span
}

// LineBreak returns a new forced line break.
func LineBreak() *htmltree.Node {
	return htmltree.NewElement("BR", htmltree.Attr{Key: "class", Val: htmltree.ClassLineBreak})
}

// MarkerLine returns the line number carried by a marker span. The
// data-line-number attribute takes precedence over the line-number-N class.
func MarkerLine(n *htmltree.Node) (int, bool) {
	if v, ok := n.Attr("data-line-number"); ok {
		if line, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return line, true
		}
	}
	for _, c := range n.Classes() {
		if rest, ok := strings.CutPrefix(c, "line-number-"); ok {
			if line, err := strconv.Atoi(rest); err == nil {
				return line, true
			}
		}
	}
	return 0, false
}
