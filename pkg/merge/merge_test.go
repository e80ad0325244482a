package merge

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/odvcencio/motiontext/pkg/extract"
	"github.com/odvcencio/motiontext/pkg/htmltree"
)

func no(n int) string {
	s := strconv.Itoa(n)
	return `<span class="os-line-number line-number-` + s + `" data-line-number="` + s + `" contenteditable="false">&nbsp;</span>`
}

func br(n int) string {
	return `<br class="os-line-break">` + no(n)
}

func intPtr(n int) *int { return &n }

var nestedListDoc = `<p>` + no(1) + `Line 1 ` + br(2) + `Line 2 ` + br(3) + `Line <strong>3<br>` + no(4) + `Line 4 ` + br(5) + `Line</strong> 5</p>` +
	`<ul class="ul-class">` +
	`<li class="li-class">` + no(6) + `Line 6 ` + br(7) + `Line 7</li>` +
	`<li class="li-class"><ul>` +
	`<li>` + no(8) + `Level 2 LI 8</li>` +
	`<li>` + no(9) + `Level 2 LI 9</li>` +
	`</ul></li>` +
	`</ul>` +
	`<p>` + no(10) + `Line 10 ` + br(11) + `Line 11</p>`

const (
	strippedFirstParagraph = `<P>Line 1 Line 2 Line <STRONG>3<BR>Line 4 Line</STRONG> 5</P>`
	strippedList           = `<UL class="ul-class"><LI class="li-class">Line 6 Line 7</LI><LI class="li-class"><UL><LI>Level 2 LI 8</LI><LI>Level 2 LI 9</LI></UL></LI></UL>`
	strippedLastParagraph  = `<P>Line 10 Line 11</P>`
)

func TestReplaceListByParagraph(t *testing.T) {
	got, err := ReplaceLines(nestedListDoc, `<p>Replaced a UL by a P</p>`, 6, intPtr(9))
	if err != nil {
		t.Fatalf("ReplaceLines: %v", err)
	}
	want := strippedFirstParagraph +
		`<P>Replaced a UL by a P</P>` +
		`<UL class="ul-class"><LI class="li-class"><UL><LI>Level 2 LI 9</LI></UL></LI></UL>` +
		strippedLastParagraph
	if got != want {
		t.Errorf("ReplaceLines:\n got %q\nwant %q", got, want)
	}
}

func TestReplaceWithOwnContentRestoresDocument(t *testing.T) {
	for _, r := range []struct{ from, to int }{{8, 9}, {6, 8}, {2, 3}, {10, 12}} {
		c, err := extract.Range(nestedListDoc, r.from, intPtr(r.to))
		if err != nil {
			t.Fatalf("Range(%d, %d): %v", r.from, r.to, err)
		}
		got, err := ReplaceLines(nestedListDoc, c.Render(), r.from, intPtr(r.to))
		if err != nil {
			t.Fatalf("ReplaceLines(%d, %d): %v", r.from, r.to, err)
		}
		want := strippedFirstParagraph + strippedList + strippedLastParagraph
		if got != want {
			t.Errorf("ReplaceLines(%d, %d):\n got %q\nwant %q", r.from, r.to, got, want)
		}
	}
}

var orderedListDoc = `<ol start="3">` +
	`<li>` + no(1) + `first item text</li>` +
	`<li>` + no(2) + `second item text</li>` +
	`<li>` + no(3) + `third item text</li>` +
	`</ol>`

func TestReplaceKeepsOrderedListStart(t *testing.T) {
	whole := `<OL start="3"><LI>first item text</LI><LI>second item text</LI><LI>third item text</LI></OL>`
	for _, r := range []struct{ from, to int }{{1, 2}, {2, 3}, {3, 4}} {
		c, err := extract.Range(orderedListDoc, r.from, intPtr(r.to))
		if err != nil {
			t.Fatalf("Range(%d, %d): %v", r.from, r.to, err)
		}
		got, err := ReplaceLines(orderedListDoc, c.Render(), r.from, intPtr(r.to))
		if err != nil {
			t.Fatalf("ReplaceLines(%d, %d): %v", r.from, r.to, err)
		}
		if got != whole {
			t.Errorf("ReplaceLines(%d, %d):\n got %q\nwant %q", r.from, r.to, got, whole)
		}
	}

	got, err := ReplaceLines(orderedListDoc, "", 2, intPtr(3))
	if err != nil {
		t.Fatalf("ReplaceLines: %v", err)
	}
	if want := `<OL start="3"><LI>first item text</LI><LI>third item text</LI></OL>`; got != want {
		t.Errorf("deleting the second item:\n got %q\nwant %q", got, want)
	}
}

func TestReplaceEmptyRangeInserts(t *testing.T) {
	got, err := ReplaceLines(nestedListDoc, "", 10, intPtr(10))
	if err != nil {
		t.Fatalf("ReplaceLines: %v", err)
	}
	if want := strippedFirstParagraph + strippedList + strippedLastParagraph; got != want {
		t.Errorf("ReplaceLines(10, 10, empty):\n got %q\nwant %q", got, want)
	}
}

func TestReplaceInsideParagraph(t *testing.T) {
	want := `<P>Line 1 Zeile 2 Line <STRONG>3<BR>Line 4 Line</STRONG> 5</P>` + strippedList + strippedLastParagraph
	for _, replacement := range []string{`<p>Zeile 2 </p>`, `<p>Zeile 2</p>`} {
		got, err := ReplaceLines(nestedListDoc, replacement, 2, intPtr(3))
		if err != nil {
			t.Fatalf("ReplaceLines: %v", err)
		}
		if got != want {
			t.Errorf("ReplaceLines(%q):\n got %q\nwant %q", replacement, got, want)
		}
	}
}

func TestReplaceToEnd(t *testing.T) {
	got, err := ReplaceLines(nestedListDoc, `<p>New end</p>`, 10, nil)
	if err != nil {
		t.Fatalf("ReplaceLines: %v", err)
	}
	if want := strippedFirstParagraph + strippedList + `<P>New end</P>`; got != want {
		t.Errorf("ReplaceLines:\n got %q\nwant %q", got, want)
	}
}

func TestReplaceMissingLine(t *testing.T) {
	_, err := ReplaceLines(nestedListDoc, `<p>x</p>`, 30, intPtr(31))
	if !errors.Is(err, extract.ErrInconsistency) {
		t.Fatalf("err = %v, want ErrInconsistency", err)
	}
}

func TestMergeNodeArrays(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"text joins", `abc`, `def`, `abcdef`},
		{"same element merges", `<p>a</p><p class="x">b</p>`, `<p class="y">c</p>`, `<P>a</P><P class="x">bc</P>`},
		{"list items merge", `<ul><li>a</li> </ul>`, `<ul> <li>b</li><li>c</li></ul>`, `<UL><LI>ab</LI><LI>c</LI></UL>`},
		{"different elements stay apart", `<p>a</p>`, `<div>b</div>`, `<P>a</P><DIV>b</DIV>`},
		{"boundary dropped", `<p>a</p><template></template>`, `<div>b</div>`, `<P>a</P><DIV>b</DIV>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := htmltree.ParseNodes(tc.a)
			if err != nil {
				t.Fatal(err)
			}
			b, err := htmltree.ParseNodes(tc.b)
			if err != nil {
				t.Fatal(err)
			}
			if got := htmltree.SerializeNodes(MergeNodeArrays(a, b), false); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}

	only, _ := htmltree.ParseNodes(`<p>x</p>`)
	if got := MergeNodeArrays(nil, only); len(got) != 1 {
		t.Errorf("merge with empty left side: %d nodes, want 1", len(got))
	}
	if got := MergeNodeArrays(only, nil); len(got) != 1 {
		t.Errorf("merge with empty right side: %d nodes, want 1", len(got))
	}
}

func TestInsertDanglingSpace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`<p>text</p>`, `<P>text </P>`},
		{`<p>text </p>`, `<P>text </P>`},
		{`<p>a <em>b</em></p>` + "\n", `<P>a <EM>b </EM></P>` + "\n"},
	}
	for _, tc := range tests {
		root := htmltree.MustParse(tc.in)
		insertDanglingSpace(root)
		if got := htmltree.Serialize(root, false); got != tc.want {
			t.Errorf("insertDanglingSpace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAddDiffMarkup(t *testing.T) {
	var oldText string
	format := func(old, new *htmltree.Node) (*htmltree.Node, error) {
		oldText = old.TextContent()
		wrap := htmltree.NewElement("DIV", htmltree.Attr{Key: "class", Val: "diff"})
		for len(new.Children) > 0 {
			wrap.AppendChild(new.Children[0])
		}
		out := htmltree.NewFragment()
		out.AppendChild(wrap)
		return out, nil
	}
	got, err := AddDiffMarkup(nestedListDoc, `<p>X</p>`, 10, nil, format)
	if err != nil {
		t.Fatalf("AddDiffMarkup: %v", err)
	}
	want := strippedFirstParagraph + strippedList + `<DIV class="diff"><P>X</P></DIV>`
	if got != want {
		t.Errorf("AddDiffMarkup:\n got %q\nwant %q", got, want)
	}
	if oldText != "Line 10 Line 11" {
		t.Errorf("formatter saw old text %q", oldText)
	}

	boom := errors.New("boom")
	_, err = AddDiffMarkup(nestedListDoc, `<p>X</p>`, 10, nil, func(_, _ *htmltree.Node) (*htmltree.Node, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want formatter error", err)
	}
	if strings.Contains(want, "TEMPLATE") {
		t.Error("boundary leaked")
	}
}
