package htmldiff

import (
	"fmt"

	gotreesitter "github.com/odvcencio/gotreesitter"
	"github.com/odvcencio/gotreesitter/grammars"
	classify "github.com/odvcencio/gts-suite/pkg/lang/treesitter"

	"github.com/odvcencio/motiontext/pkg/htmltree"
)

// syntaxFile names fragments for grammar detection.
const syntaxFile = "fragment.html"

var commentTypes = classify.CommentNodeTypes

// balancedMarkup parses html with the tree-sitter HTML grammar and reports
// whether every element it opens is closed explicitly and no end tag is left
// without its start tag. An error means the fragment could not be parsed.
func balancedMarkup(html string) (bool, error) {
	bt, err := grammars.ParseFile(syntaxFile, []byte(html))
	if err != nil {
		return false, fmt.Errorf("parse markup: %w", err)
	}
	defer bt.Release()
	return balancedNode(bt, bt.RootNode()), nil
}

func balancedNode(bt *gotreesitter.BoundTree, node *gotreesitter.Node) bool {
	switch nodeType := bt.NodeType(node); {
	case nodeType == "ERROR" || nodeType == "erroneous_end_tag":
		return false
	case commentTypes[nodeType]:
		return true
	case nodeType == "element" && !closedElement(bt, node):
		return false
	}
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if !balancedNode(bt, child) {
			return false
		}
	}
	return true
}

// closedElement reports whether element has an end tag, is self-closing or
// is void. The grammar closes anything else implicitly.
func closedElement(bt *gotreesitter.BoundTree, element *gotreesitter.Node) bool {
	name := ""
	for i := 0; i < element.ChildCount(); i++ {
		child := element.Child(i)
		if child == nil {
			continue
		}
		switch bt.NodeType(child) {
		case "end_tag", "self_closing_tag":
			return true
		case "start_tag":
			name = tagName(bt, child)
		}
	}
	return name != "" && htmltree.IsVoid(name)
}

func tagName(bt *gotreesitter.BoundTree, tag *gotreesitter.Node) string {
	for i := 0; i < tag.ChildCount(); i++ {
		child := tag.Child(i)
		if child != nil && bt.NodeType(child) == "tag_name" {
			return bt.NodeText(child)
		}
	}
	return ""
}
