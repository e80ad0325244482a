package htmltree

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		html.WithUnsafe(), // motion texts may embed raw HTML
	),
)

// FromMarkdown converts markdown source to an HTML fragment suitable as
// input for the numbering engine. Newlines goldmark emits between block
// elements are removed.
func FromMarkdown(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return blockNewlines.ReplaceAllString(strings.TrimSpace(buf.String()), ">$1"), nil
}

// blockNewlines matches the newlines before a block tag. The tag itself is
// captured so that consecutive matches never overlap.
var blockNewlines = regexp.MustCompile(`>\n+(</?(?:p|ul|ol|li|h[1-6]|blockquote|pre|hr|table|thead|tbody|tr|td|th)\b)`)
