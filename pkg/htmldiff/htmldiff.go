// Package htmldiff computes word-level differences between two HTML
// fragments and renders them with <ins> and <del> markup.
//
// The diff operates on a normalized token stream in which tags are atomic.
// The raw result is run through a series of repairs; if the markup is still
// not well-formed afterwards, the whole paragraph is shown as deleted and
// re-inserted instead.
package htmldiff

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/odvcencio/motiontext/pkg/cache"
	"github.com/odvcencio/motiontext/pkg/htmltree"
	"github.com/odvcencio/motiontext/pkg/linenumber"
)

// workaroundPrepend keeps a leading tag that occurs again later from being
// reported as deleted and re-inserted.
const workaroundPrepend = "<DUMMY><PREPEND>"

type options struct {
	lineLength *int
	firstLine  *int
}

// Option configures Diff.
type Option func(*options)

// WithLineLength numbers the lines of the result using the given length.
func WithLineLength(n int) Option {
	return func(o *options) { o.lineLength = &n }
}

// WithFirstLine sets the number of the first line of the result. It only
// takes effect together with WithLineLength.
func WithFirstLine(n int) Option {
	return func(o *options) { o.firstLine = &n }
}

var (
	rePSplitAfter   = regexp.MustCompile(`(?i)(\s*<p[^>]+class\s*=\s*["'][^"']*)os-split-after`)
	reMultiSpace    = regexp.MustCompile(` {2,}`)
	reLineNumberDel = regexp.MustCompile(`(?i)<del>((<BR CLASS="os-line-break"></del><del>)?(<span[^>]+os-line-number[^>]+?>)(\s|</?del>)*</span>)</del>`)
	reInsJoin       = regexp.MustCompile(`(?i)</ins><ins>`)
	reDelJoin       = regexp.MustCompile(`(?i)</del><del>`)
	reInsParagraph  = regexp.MustCompile(`(?i)<ins>(\s*)(<p( [^>]*)?>[\s\S]*?</p>)(\s*)</ins>`)
	rePOpen         = regexp.MustCompile(`(?i)<p( [^>]*)?>`)
	rePClose        = regexp.MustCompile(`(?i)</p>`)
	reDelPClose     = regexp.MustCompile(`(?i)<del></p></del><ins>([\s\S]*?)</p></ins>`)
	reInsAny        = regexp.MustCompile(`(?i)<ins>[\s\S]*?</ins>`)
	rePBoundary     = regexp.MustCompile(`(?i)(</p>\s*<p>)`)
	reWordChange    = regexp.MustCompile(`(?i)<del>([a-z0-9,_-]* ?)</del><ins>([a-z0-9,_-]* ?)</ins>`)
	reMarkerSpan    = regexp.MustCompile(`(?i)<span[^>]+os-line-number[^>]+?>\s*</span>`)
	reMarkerSpace   = regexp.MustCompile(`(?i)> </span`)
	reInsBlock      = regexp.MustCompile(`(?i)<ins>.*?(\n.*?)*</ins>`)
	reDelBlock      = regexp.MustCompile(`(?i)<del>.*?(\n.*?)*</del>`)
	reBlockOpen     = regexp.MustCompile(`(?i)<(div|p|li)[^>]*>`)
	reBlockClose    = regexp.MustCompile(`(?i)</(div|p|li)[^>]*>`)
	reDeletedOnlyP  = regexp.MustCompile(`(?i)^<del><p>(.*)</p></del>$`)
	reDelGroup      = regexp.MustCompile(`(?i)(?:<del>.*?</del>)+`)
	reInsGroupStart = regexp.MustCompile(`(?i)^(?:<ins>.*?</ins>)+`)
)

// Diff returns newHTML annotated with the changes from oldHTML. Inserted
// text is wrapped in <ins>, deleted text in <del>. When the word diff
// cannot be expressed as valid markup, the old content is returned marked
// with class "delete" followed by the new content marked with class
// "insert".
func Diff(oldHTML, newHTML string, opts ...Option) (string, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	key := cache.NewKey("htmldiff.diff").
		OptionalInt(o.lineLength).
		OptionalInt(o.firstLine).
		String(oldHTML).
		String(newHTML).
		Sum()
	if cached, ok := cache.Default().GetString(key); ok {
		return cached, nil
	}

	// os-split-after on paragraphs must not show up as a change; it is
	// restored on the result.
	oldSplit := rePSplitAfter.MatchString(oldHTML)
	newSplit := rePSplitAfter.MatchString(newHTML)
	oldHTML = rePSplitAfter.ReplaceAllString(oldHTML, "$1")
	newHTML = rePSplitAfter.ReplaceAllString(newHTML, "$1")

	raw := diffString(workaroundPrepend+oldHTML, workaroundPrepend+newHTML)
	raw = reMultiSpace.ReplaceAllString(strings.TrimSpace(raw), " ")
	raw = repair(raw)
	raw = strings.TrimPrefix(raw, workaroundPrepend)

	var (
		out string
		err error
	)
	if DetectBrokenDiffHTML(raw) {
		out, err = diffParagraphs(oldHTML, newHTML, o.lineLength, o.firstLine)
	} else {
		out, err = finish(raw, o)
	}
	if err != nil {
		return "", err
	}

	if oldSplit || newSplit {
		if out, err = AddClassToLastNode(out, htmltree.ClassSplitAfter); err != nil {
			return "", err
		}
	}

	cache.Default().SetString(key, out)
	return out, nil
}

func diffString(oldHTML, newHTML string) string {
	oldHTML = htmltree.NormalizeForDiff(strings.TrimSpace(oldHTML))
	newHTML = htmltree.NormalizeForDiff(strings.TrimSpace(newHTML))

	o, n := align(tokenize(oldHTML), tokenize(newHTML))
	unmatchMoved(o, n)
	out := render(o, n)
	return reMultiSpace.ReplaceAllString(strings.TrimSpace(out), " ")
}

// repair applies the markup fixes to a raw token diff, in order.
func repair(s string) string {
	s = fixWrongChangeDetection(s)

	// Deletions of nothing but a line number marker.
	s = reLineNumberDel.ReplaceAllStringFunc(s, func(m string) string {
		sub := reLineNumberDel.FindStringSubmatch(m)
		return sub[2] + sub[3] + " </span>"
	})

	s = reInsJoin.ReplaceAllString(s, "")
	s = reDelJoin.ReplaceAllString(s, "")

	// Whitespace around an inserted paragraph moves out of the insertion,
	// and the insertion moves into the paragraph.
	s = reInsParagraph.ReplaceAllStringFunc(s, func(m string) string {
		sub := reInsParagraph.FindStringSubmatch(m)
		inner := rePOpen.ReplaceAllString(sub[2], "$0<ins>")
		inner = rePClose.ReplaceAllString(inner, "</ins>$0")
		return sub[1] + inner + sub[4]
	})

	s = reDelPClose.ReplaceAllString(s, "<ins>${1}</ins></p>")
	s = reInsAny.ReplaceAllStringFunc(s, func(m string) string {
		return rePBoundary.ReplaceAllString(m, "</ins>${1}<ins>")
	})

	s = reWordChange.ReplaceAllStringFunc(s, func(m string) string {
		sub := reWordChange.FindStringSubmatch(m)
		return narrowWordChange(sub[1], sub[2])
	})

	s = reMarkerSpan.ReplaceAllStringFunc(s, func(m string) string {
		return reMarkerSpace.ReplaceAllString(strings.ToLower(m), ">&nbsp;</span")
	})
	return s
}

var dmp = diffmatchpatch.New()

// narrowWordChange renders the replacement of oldWord by newWord as a
// change of the characters between their common prefix and suffix.
func narrowWordChange(oldWord, newWord string) string {
	prefix := dmp.DiffCommonPrefix(oldWord, newWord)
	oldRunes := []rune(oldWord)[prefix:]
	newRunes := []rune(newWord)[prefix:]
	suffix := dmp.DiffCommonSuffix(string(oldRunes), string(newRunes))

	var b strings.Builder
	b.WriteString(string([]rune(oldWord)[:prefix]))
	if rem := oldRunes[:len(oldRunes)-suffix]; len(rem) > 0 {
		b.WriteString("<del>" + string(rem) + "</del>")
	}
	if rem := newRunes[:len(newRunes)-suffix]; len(rem) > 0 {
		b.WriteString("<ins>" + string(rem) + "</ins>")
	}
	b.WriteString(string(oldRunes[len(oldRunes)-suffix:]))
	return b.String()
}

// fixWrongChangeDetection turns a deletion directly followed by the
// insertion of the same content, apart from line number markers, back into
// unchanged text.
func fixWrongChangeDetection(s string) string {
	if !strings.Contains(s, "<del>") || !strings.Contains(s, "<ins>") {
		return s
	}
	out := s
	for _, del := range reDelGroup.FindAllString(s, -1) {
		_, after, found := strings.Cut(out, del)
		if !found {
			continue
		}
		if i := strings.Index(after, del); i >= 0 {
			after = after[:i]
		}
		ins := reInsGroupStart.FindString(after)
		if ins == "" {
			continue
		}

		delShort := strings.ReplaceAll(reLineNumberDel.ReplaceAllString(del, ""), "</del><del>", "")
		insConv := strings.NewReplacer("<ins>", "<del>", "</ins>", "</del>").Replace(ins)
		insConv = strings.ReplaceAll(insConv, "</del><del>", "")
		if !strings.Contains(delShort, insConv) {
			continue
		}
		if strings.Replace(delShort, insConv, "", 1) == "" {
			plain := strings.NewReplacer("<del>", "", "</del>", "").Replace(del)
			out = strings.Replace(out, del+ins, plain, 1)
		}
	}
	return out
}

// finish moves block tags out of insertions and deletions and renders the
// result through the tree, numbering lines if requested.
func finish(s string, o options) (string, error) {
	s = reInsBlock.ReplaceAllStringFunc(s, func(m string) string {
		m = reBlockOpen.ReplaceAllString(m, "$0<ins>")
		return reBlockClose.ReplaceAllString(m, "</ins>$0")
	})
	s = reDelBlock.ReplaceAllStringFunc(s, func(m string) string {
		m = reBlockOpen.ReplaceAllString(m, "$0<del>")
		return reBlockClose.ReplaceAllString(m, "</del>$0")
	})
	s = reDeletedOnlyP.ReplaceAllString(s, "<p>${1}</p>")

	root, err := htmltree.Parse(s)
	if err != nil {
		return "", err
	}
	out := htmltree.RenderInner(root)

	if o.lineLength != nil && o.firstLine != nil {
		return linenumber.Annotate(out, *o.lineLength, linenumber.WithFirstLine(*o.firstLine))
	}
	return out, nil
}
