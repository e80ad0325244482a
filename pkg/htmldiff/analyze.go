package htmldiff

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/odvcencio/motiontext/pkg/cache"
	"github.com/odvcencio/motiontext/pkg/extract"
	"github.com/odvcencio/motiontext/pkg/htmltree"
	"github.com/odvcencio/motiontext/pkg/linenumber"
)

// ModificationType classifies how new text relates to old text.
type ModificationType int

const (
	Replacement ModificationType = iota
	Insertion
	Deletion
	Other
)

func (t ModificationType) String() string {
	switch t {
	case Replacement:
		return "replacement"
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	default:
		return "other"
	}
}

// DetectReplacementType reports whether newHTML only adds to or only
// removes from oldHTML. Everything else, identical input included, is a
// Replacement.
func DetectReplacementType(oldHTML, newHTML string) ModificationType {
	oldNorm := []rune(htmltree.NormalizeForDiff(oldHTML))
	newNorm := []rune(htmltree.NormalizeForDiff(newHTML))
	if string(oldNorm) == string(newNorm) {
		return Replacement
	}

	// The remainders start one character before the first difference, or
	// at the last character of the shorter text if it is a prefix.
	i := 0
	for i < len(oldNorm) && i < len(newNorm) {
		differs := oldNorm[i] != newNorm[i]
		i++
		if differs {
			break
		}
	}
	start := max(i-1, 0)
	remOld := string(oldNorm[min(start, len(oldNorm)):])
	remNew := string(newNorm[min(start, len(newNorm)):])

	switch {
	case len(remOld) > len(remNew) && strings.HasSuffix(remOld, remNew):
		return Deletion
	case len(remOld) < len(remNew) && strings.HasSuffix(remNew, remOld):
		return Insertion
	}
	return Replacement
}

func isChange(n *htmltree.Node) bool {
	return n.IsElement("INS") || n.IsElement("DEL") || n.HasClass("insert") || n.HasClass("delete")
}

// DetectAffectedLineRange returns the lines of the line-numbered diff markup
// that contain changes. From is the line the first change is on, To the
// line following the last change. It returns nil if there are no changes.
func DetectAffectedLineRange(diffHTML string) (*linenumber.Range, error) {
	key := cache.NewKey("htmldiff.affected").String(diffHTML).Sum()
	if v, ok := cache.Default().Get(key); ok {
		if r, ok := v.(linenumber.Range); ok {
			return &r, nil
		}
	}

	root, err := htmltree.Parse(diffHTML)
	if err != nil {
		return nil, err
	}
	changes := root.FindAll(func(n *htmltree.Node) bool {
		return n.Type == htmltree.ElementNode && isChange(n)
	})
	if len(changes) == 0 {
		return nil, nil
	}
	if err := extract.InsertInternalLineMarkers(root); err != nil {
		return nil, fmt.Errorf("affected line range: %w", err)
	}
	extract.InsertInternalLiNumbers(root)

	before := markerBefore(changes[0])
	after := markerAfter(changes[len(changes)-1])
	if before == nil || after == nil {
		return nil, fmt.Errorf("affected line range: %w", extract.ErrInconsistency)
	}
	from, _ := linenumber.MarkerLine(before)
	to, _ := linenumber.MarkerLine(after)

	r := linenumber.Range{From: from, To: to}
	cache.Default().Set(key, r, 16)
	return &r, nil
}

// markerBefore returns the closest internal line marker preceding n in
// document order, not counting markers inside n.
func markerBefore(n *htmltree.Node) *htmltree.Node {
	trace := extract.NodeTrace(n)
	for j := len(trace) - 1; j >= 0; j-- {
		for sib := trace[j].PrevSibling(); sib != nil; sib = sib.PrevSibling() {
			if m := lastMarkerIn(sib); m != nil {
				return m
			}
		}
	}
	return nil
}

// markerAfter returns the closest internal line marker following n in
// document order, not counting markers inside n.
func markerAfter(n *htmltree.Node) *htmltree.Node {
	trace := extract.NodeTrace(n)
	for j := len(trace) - 1; j >= 0; j-- {
		for sib := trace[j].NextSibling(); sib != nil; sib = sib.NextSibling() {
			if m := firstMarkerIn(sib); m != nil {
				return m
			}
		}
	}
	return nil
}

func firstMarkerIn(n *htmltree.Node) *htmltree.Node {
	if n.IsText() {
		return nil
	}
	if htmltree.IsLineBreakMarker(n) {
		return n
	}
	return n.Find(htmltree.IsLineBreakMarker)
}

func lastMarkerIn(n *htmltree.Node) *htmltree.Node {
	if n.IsText() {
		return nil
	}
	if htmltree.IsLineBreakMarker(n) {
		return n
	}
	found := n.FindAll(htmltree.IsLineBreakMarker)
	if len(found) == 0 {
		return nil
	}
	return found[len(found)-1]
}

// DiffHTMLToFinalText applies the changes in diff markup: deletions are
// removed including their content, insertions are unwrapped.
func DiffHTMLToFinalText(html string) (string, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return "", err
	}
	for _, n := range root.FindAll(func(n *htmltree.Node) bool {
		return n.IsElement("DEL") || n.HasClass("delete")
	}) {
		n.Detach()
	}
	for _, ins := range root.FindAll(func(n *htmltree.Node) bool { return n.IsElement("INS") }) {
		ins.ReplaceWith(append([]*htmltree.Node(nil), ins.Children...)...)
	}
	for _, n := range root.FindAll(func(n *htmltree.Node) bool { return n.HasClass("insert") }) {
		n.RemoveClass("insert")
	}
	return htmltree.Serialize(root, false), nil
}

var (
	reFirstTag   = regexp.MustCompile(`(?i)<[a-z][^>]*>`)
	reClassAttr  = regexp.MustCompile(`(?i)class=["']([a-z0-9 _-]*)["']`)
	reClassValue = regexp.MustCompile(`(?i)class=["'][a-z0-9 _-]*["']`)
)

// AddCSSClassToFirstTag adds class to the first opening tag in html.
func AddCSSClassToFirstTag(html, class string) string {
	loc := reFirstTag.FindStringIndex(html)
	if loc == nil {
		return html
	}
	tag := html[loc[0]:loc[1]]
	if reClassValue.MatchString(tag) {
		done := false
		tag = reClassAttr.ReplaceAllStringFunc(tag, func(m string) string {
			if done {
				return m
			}
			done = true
			prev := reClassAttr.FindStringSubmatch(m)[1]
			return `class="` + prev + " " + class + `"`
		})
	} else {
		tag = tag[:len(tag)-1] + ` class="` + class + `">`
	}
	return html[:loc[0]] + tag + html[loc[1]:]
}

// AddClassToLastNode adds class to the last top-level element of html.
// The classes of that element end up sorted.
func AddClassToLastNode(html, class string) (string, error) {
	root, err := htmltree.Parse(html)
	if err != nil {
		return "", err
	}
	for i := len(root.Children) - 1; i >= 0; i-- {
		el := root.Children[i]
		if el.Type != htmltree.ElementNode {
			continue
		}
		var classes []string
		if v, ok := el.Attr("class"); ok && v != "" {
			classes = strings.Split(v, " ")
		}
		classes = append(classes, class)
		sort.Strings(classes)
		el.SetAttr("class", strings.TrimSpace(strings.Join(classes, " ")))
		break
	}
	return htmltree.RenderInner(root), nil
}
