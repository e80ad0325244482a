package htmldiff

import "strings"

// tokenize splits normalized html into diff tokens. Tags are never split;
// text is split at spaces, periods, commas, exclamation marks, hyphens and
// newlines. Joining the tokens yields the input.
func tokenize(s string) []string {
	tokens := splitEmbed([]string{s}, "<", true)
	tokens = splitEmbed(tokens, ">", false)
	for _, sep := range []string{" ", ".", ",", "!", "-"} {
		tokens = splitSeparate(tokens, sep)
	}
	tokens = splitEmbed(tokens, "\n", false)

	out := tokens[:0]
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitEmbed splits every token at sep and keeps sep attached to the
// following part when prepend is set, to the preceding part otherwise.
func splitEmbed(in []string, sep string, prepend bool) []string {
	var out []string
	for _, t := range in {
		if strings.HasPrefix(t, "<") && (sep == " " || sep == "\n") {
			out = append(out, t)
			continue
		}
		parts := strings.Split(t, sep)
		if len(parts) == 1 {
			out = append(out, t)
			continue
		}
		if prepend {
			if parts[0] != "" {
				out = append(out, parts[0])
			}
			for _, p := range parts[1:] {
				out = append(out, sep+p)
			}
			continue
		}
		for _, p := range parts[:len(parts)-1] {
			out = append(out, p+sep)
		}
		if last := parts[len(parts)-1]; last != "" {
			out = append(out, last)
		}
	}
	return out
}

// splitSeparate splits every text token at sep and emits sep as a token of
// its own.
func splitSeparate(in []string, sep string) []string {
	var out []string
	for _, t := range in {
		if strings.HasPrefix(t, "<") {
			out = append(out, t)
			continue
		}
		for i, p := range strings.Split(t, sep) {
			if i > 0 {
				out = append(out, sep)
			}
			out = append(out, p)
		}
	}
	return out
}

// token is a diff token and the index of its counterpart in the other
// sequence, or -1 if it has none.
type token struct {
	text string
	row  int
}

func (t token) matched() bool { return t.row >= 0 }

// align pairs the tokens of old and new. Tokens occurring exactly once in
// both sequences are matched first; matches are then extended to equal
// neighbours, forward and backward.
func align(oldTokens, newTokens []string) (o, n []token) {
	type occurrence struct{ oldRows, newRows []int }
	occ := make(map[string]*occurrence)
	get := func(s string) *occurrence {
		x, ok := occ[s]
		if !ok {
			x = &occurrence{}
			occ[s] = x
		}
		return x
	}

	n = make([]token, len(newTokens))
	for i, t := range newTokens {
		n[i] = token{text: t, row: -1}
		x := get(t)
		x.newRows = append(x.newRows, i)
	}
	o = make([]token, len(oldTokens))
	for i, t := range oldTokens {
		o[i] = token{text: t, row: -1}
		x := get(t)
		x.oldRows = append(x.oldRows, i)
	}

	for _, x := range occ {
		if len(x.newRows) == 1 && len(x.oldRows) == 1 {
			n[x.newRows[0]].row = x.oldRows[0]
			o[x.oldRows[0]].row = x.newRows[0]
		}
	}

	for i := 0; i < len(n)-1; i++ {
		if !n[i].matched() || n[i+1].matched() {
			continue
		}
		j := n[i].row + 1
		if j < len(o) && !o[j].matched() && n[i+1].text == o[j].text {
			n[i+1].row = j
			o[j].row = i + 1
		}
	}

	for i := len(n) - 1; i > 0; i-- {
		if !n[i].matched() || n[i-1].matched() {
			continue
		}
		j := n[i].row - 1
		if j >= 0 && !o[j].matched() && n[i-1].text == o[j].text {
			n[i-1].row = j
			o[j].row = i - 1
		}
	}
	return o, n
}

// unmatchMoved drops matches whose old position lies before an earlier
// match, so that moved text is rendered as deletion and insertion.
func unmatchMoved(o, n []token) {
	lastRow := 0
	for z := range n {
		if n[z].row > lastRow {
			lastRow = n[z].row
		}
		if n[z].row > 0 && n[z].row < lastRow {
			o[n[z].row].row = -1
			n[z].row = -1
		}
	}
}

// render writes the aligned sequences as new text with <ins> and <del>
// markup.
func render(o, n []token) string {
	var b strings.Builder
	del := func(s string) {
		b.WriteString("<del>")
		b.WriteString(s)
		b.WriteString("</del>")
	}
	ins := func(s string) {
		b.WriteString("<ins>")
		b.WriteString(s)
		b.WriteString("</ins>")
	}

	if len(n) == 0 {
		for _, t := range o {
			del(t.text)
		}
		return b.String()
	}

	if !n[0].matched() {
		for k := 0; k < len(o) && !o[k].matched(); k++ {
			del(o[k].text)
		}
	}

	currOldRow := 0
	for i, t := range n {
		switch {
		case !t.matched():
			if t.text != "" {
				ins(t.text)
			}
		case t.row < currOldRow:
			ins(t.text)
		default:
			b.WriteString(t.text)
			if i+1 < len(n) && n[i+1].matched() && n[i+1].row > t.row+1 {
				for k := t.row + 1; k < n[i+1].row; k++ {
					del(o[k].text)
				}
			} else {
				for k := t.row + 1; k < len(o) && !o[k].matched(); k++ {
					del(o[k].text)
				}
			}
			currOldRow = t.row
		}
	}
	return b.String()
}
