package htmltree

import (
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

var entityReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u2013", "-",
	"&nbsp;", " ",
	"&ndash;", "-",
	"&auml;", "ä",
	"&ouml;", "ö",
	"&uuml;", "ü",
	"&Auml;", "Ä",
	"&Ouml;", "Ö",
	"&Uuml;", "Ü",
	"&szlig;", "ß",
	"&bdquo;", "„",
	"&ldquo;", "“",
	"&bull;", "•",
	"&sect;", "§",
	"&eacute;", "é",
	"&euro;", "€",
)

var (
	reSpaceBeforeClose = regexp.MustCompile(`[\s\x{00a0}]+(</(?:P|DIV|LI)>)`)
	reSpaceBeforeLi    = regexp.MustCompile(`[\s\x{00a0}]+<LI>`)
	reSpaceAfterLi     = regexp.MustCompile(`</LI>[\s\x{00a0}]+`)
	reBrNewline        = regexp.MustCompile(`(<BR>)\n`)
	reWhitespaceRun    = regexp.MustCompile(`[ \n\t]+`)
	reBlockCloseSpace  = regexp.MustCompile(`(</(?:DIV|P|UL|LI)>) `)
)

// NormalizeForDiff brings html into the canonical form both sides of a
// diff are compared in. Tag and attribute names are uppercased, attributes
// and CSS classes sorted, empty attributes dropped, a fixed set of named
// entities decoded and whitespace around block tags collapsed. Closing
// block tags are followed by a newline.
func NormalizeForDiff(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				b.Write(z.Raw())
			}
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			b.WriteString(normalizeStartTag(z))
		case html.EndTagToken:
			name, _ := z.TagName()
			b.WriteString("</" + strings.ToUpper(string(name)) + ">")
		default:
			b.Write(z.Raw())
		}
	}
	out := b.String()

	out = reSpaceBeforeClose.ReplaceAllString(out, "$1")
	out = reSpaceBeforeLi.ReplaceAllString(out, "<LI>")
	out = reSpaceAfterLi.ReplaceAllString(out, "</LI>")
	out = entityReplacer.Replace(out)
	out = reBrNewline.ReplaceAllString(out, "$1")
	out = reWhitespaceRun.ReplaceAllString(out, " ")
	out = reBlockCloseSpace.ReplaceAllString(out, "$1\n")
	return out
}

func normalizeStartTag(z *html.Tokenizer) string {
	name, hasAttr := z.TagName()
	tag := strings.ToUpper(string(name))
	var attrs []string
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		k := strings.ToUpper(string(key))
		v := string(val)
		if k == "CLASS" {
			classes := strings.Fields(v)
			sort.Strings(classes)
			v = strings.Join(classes, " ")
		}
		if v == "" {
			continue
		}
		attrs = append(attrs, " "+k+`="`+attrEscaper.Replace(v)+`"`)
	}
	sort.Strings(attrs)
	return "<" + tag + strings.Join(attrs, "") + ">"
}
