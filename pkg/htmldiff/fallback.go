package htmldiff

import (
	"regexp"
	"strings"

	"github.com/odvcencio/motiontext/pkg/htmltree"
	"github.com/odvcencio/motiontext/pkg/linenumber"
)

var (
	reDelInner   = regexp.MustCompile(`(?i)<del>(.*?)</del>`)
	reInsInner   = regexp.MustCompile(`(?i)<ins>(.*?)</ins>`)
	reBrTag      = regexp.MustCompile(`(?i)<br[^>]*>`)
	reAnyTag     = regexp.MustCompile(`<[^>]*>`)
	reBlockTag   = regexp.MustCompile(`(?i)<(div|p|ul|li|blockquote)\W`)
	reColorStyle = regexp.MustCompile(`(?i)^\s*color\s*:`)
)

// DetectBrokenDiffHTML reports whether diff markup cannot be displayed
// safely: a deletion containing any tag other than a line break, or an
// insertion containing unbalanced or block-level markup.
func DetectBrokenDiffHTML(html string) bool {
	for _, m := range reDelInner.FindAllStringSubmatch(html, -1) {
		if reAnyTag.MatchString(reBrTag.ReplaceAllString(m[1], "")) {
			return true
		}
	}
	for _, m := range reInsInner.FindAllStringSubmatch(html, -1) {
		if !isValidInlineHTML(reBrTag.ReplaceAllString(m[1], "")) {
			return true
		}
	}
	return false
}

// isValidInlineHTML reports whether html closes all of its tags and holds
// no block elements.
func isValidInlineHTML(html string) bool {
	if !reAnyTag.MatchString(html) {
		return true
	}
	if reBlockTag.MatchString(html) {
		return false
	}
	balanced, err := balancedMarkup(html)
	if err != nil {
		return rendersUnchanged(html)
	}
	return balanced
}

// rendersUnchanged reports whether html keeps its tag count when parsed and
// rendered again, which unbalanced markup does not.
func rendersUnchanged(html string) bool {
	root, err := htmltree.Parse(html)
	if err != nil {
		return false
	}
	return strings.Count(html, "<") == strings.Count(htmltree.RenderInner(root), "<")
}

// diffParagraphs renders the whole old content as deleted and the whole new
// content as inserted. Block elements get the class "delete" or "insert";
// loose text is wrapped in <del> or <ins>.
func diffParagraphs(oldHTML, newHTML string, lineLength, firstLine *int) (string, error) {
	oldRoot, err := paragraphTree(oldHTML, lineLength, firstLine)
	if err != nil {
		return "", err
	}
	newRoot, err := paragraphTree(newHTML, lineLength, firstLine)
	if err != nil {
		return "", err
	}
	markSide(oldRoot, "DEL", "delete")
	markSide(newRoot, "INS", "insert")

	merged := htmltree.NewFragment()
	for _, root := range []*htmltree.Node{oldRoot, newRoot} {
		for len(root.Children) > 0 {
			merged.AppendChild(root.Children[0])
		}
	}
	return htmltree.RenderInner(merged), nil
}

func paragraphTree(html string, lineLength, firstLine *int) (*htmltree.Node, error) {
	if lineLength == nil {
		return htmltree.Parse(html)
	}
	first := 1
	if firstLine != nil {
		first = *firstLine
	}
	return linenumber.AnnotateTree(html, *lineLength, linenumber.WithFirstLine(first))
}

func markSide(root *htmltree.Node, wrapTag, class string) {
	for _, c := range append([]*htmltree.Node(nil), root.Children...) {
		if c.IsText() {
			wrap := htmltree.NewElement(wrapTag)
			root.InsertBefore(wrap, c)
			wrap.AppendChild(c)
			continue
		}
		c.AddClass(class)
		removeColorStyles(c)
	}
}

// removeColorStyles drops color declarations from the style attributes of
// n and its descendants, as they would hide the insert and delete colors.
func removeColorStyles(n *htmltree.Node) {
	if style, ok := n.Attr("style"); ok && strings.Contains(style, "color") {
		var kept []string
		for _, decl := range strings.Split(style, ";") {
			if !reColorStyle.MatchString(decl) {
				kept = append(kept, decl)
			}
		}
		if joined := strings.Join(kept, ";"); joined == "" {
			n.RemoveAttr("style")
		} else {
			n.SetAttr("style", joined)
		}
	}
	for _, c := range n.Children {
		if c.Type == htmltree.ElementNode {
			removeColorStyles(c)
		}
	}
}
