package linenumber

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/odvcencio/motiontext/pkg/htmltree"
)

func no(n int) string {
	s := strconv.Itoa(n)
	return `<span class="os-line-number line-number-` + s + `" data-line-number="` + s + `" contenteditable="false">&nbsp;</span>`
}

func br(n int) string {
	return `<br class="os-line-break">` + no(n)
}

func renderNodes(nodes []*htmltree.Node) string {
	div := htmltree.NewElement("DIV")
	appendAll(div, nodes)
	return htmltree.RenderInner(div)
}

func TestTextToLines(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		offset     int
		want       string
		wantOffset int
	}{
		{"very short", "0123", 0, "0123", 4},
		{"simple", "012345678901234567", 0, "01234" + br(1) + "56789" + br(2) + "01234" + br(3) + "567", 3},
		{"with offset", "012345678901234567", 2, "012" + br(1) + "34567" + br(2) + "89012" + br(3) + "34567", 5},
		{"offset equals length", "012345678901234567", 5, br(1) + "01234" + br(2) + "56789" + br(3) + "01234" + br(4) + "567", 3},
		{"spaces 1", "0123 45 67 89012 34 567", 0, "0123 " + br(1) + "45 67 " + br(2) + "89012 " + br(3) + "34 " + br(4) + "567", 3},
		{"spaces 2", "0123 45 67 89012tes 344 ", 0, "0123 " + br(1) + "45 67 " + br(2) + "89012" + br(3) + "tes " + br(4) + "344 ", 4},
		{"hyphen", "I'm a Demo-Text", 0, "I'm a " + br(1) + "Demo-" + br(2) + "Text", 4},
		{"long word", "I'm a LongDemo-Text", 0, "I'm a " + br(1) + "LongD" + br(2) + "emo-" + br(3) + "Text", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &traversal{lineNumber: 1, numbered: true, inlineOffset: tt.offset}
			out, err := tr.textToLines(htmltree.NewText(tt.text), 5)
			if err != nil {
				t.Fatalf("textToLines failed: %v", err)
			}
			if got := renderNodes(out); got != tt.want {
				t.Fatalf("textToLines = %q, want %q", got, tt.want)
			}
			if tr.inlineOffset != tt.wantOffset {
				t.Fatalf("inlineOffset = %d, want %d", tr.inlineOffset, tt.wantOffset)
			}
		})
	}
}

func TestTextToLinesCountsGraphemes(t *testing.T) {
	tr := &traversal{lineNumber: 1, numbered: true}
	// "e" followed by a combining acute accent is one character.
	out, err := tr.textToLines(htmltree.NewText("ae\u0301iou"), 3)
	if err != nil {
		t.Fatalf("textToLines failed: %v", err)
	}
	if got, want := renderNodes(out), "ae\u0301i"+br(1)+"ou"; got != want {
		t.Fatalf("textToLines = %q, want %q", got, want)
	}
}

func TestAnnotate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		length int
		want   string
	}{
		{
			name:   "short paragraph",
			in:     "<p>Test 123</p>",
			length: 80,
			want:   "<p>" + no(1) + "Test 123</p>",
		},
		{
			name:   "simple span",
			in:     "<span>Lorem ipsum dolorsit amet</span>",
			length: 5,
			want:   no(1) + "<span>Lorem " + br(2) + "ipsum " + br(3) + "dolor" + br(4) + "sit " + br(5) + "amet</span>",
		},
		{
			name:   "nested inline elements",
			in:     "<span>Lorem <strong>ipsum dolorsit</strong> amet</span>",
			length: 5,
			want:   no(1) + "<span>Lorem " + br(2) + "<strong>ipsum " + br(3) + "dolor" + br(4) + "sit</strong> " + br(5) + "amet</span>",
		},
		{
			name:   "div with inline elements",
			in:     "<div>Test <span>Test1234</span>5678 Test</div>",
			length: 5,
			want:   "<div>" + no(1) + "Test " + br(2) + "<span>Test1" + br(3) + "234</span>56" + br(4) + "78 " + br(5) + "Test</div>",
		},
		{
			name:   "div within div",
			in:     "<div>Te<div>Te Test</div>Test",
			length: 5,
			want:   "<div>" + no(1) + "Te<div>" + no(2) + "Te " + br(3) + "Test</div>" + no(4) + "Test</div>",
		},
		{
			name:   "break in a previous text node",
			in:     "<p>Lorem <strong>i</strong>psumdolor</p>",
			length: 8,
			want:   "<p>" + no(1) + "Lorem " + br(2) + "<strong>i</strong>psumdolo" + br(3) + "r</p>",
		},
		{
			name:   "inserted text is not counted",
			in:     "<p>Test <ins>inserted text that is long</ins> more</p>",
			length: 20,
			want:   "<p>" + no(1) + "Test <ins>inserted text that is long</ins> more</p>",
		},
		{
			name:   "whitespace between blocks",
			in:     "<p>A</p>\n<p>B</p>",
			length: 80,
			want:   "<p>" + no(1) + "A</p>\n<p>" + no(2) + "B</p>",
		},
		{
			name:   "newline after br is dropped",
			in:     "<p>A<br>\nB</p>",
			length: 80,
			want:   "<p>" + no(1) + "A<br>" + no(2) + "B</p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Annotate(tt.in, tt.length)
			if err != nil {
				t.Fatalf("Annotate failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Annotate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnnotateFirstLineAndHighlight(t *testing.T) {
	got, err := Annotate("<p>aaaa bbbb cccc</p>", 5, WithHighlight(2))
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	want := "<p>" + no(1) + "aaaa " + br(2) + `<span class="highlight">bbbb </span>` + br(3) + "cccc</p>"
	if got != want {
		t.Fatalf("Annotate(highlight) = %q, want %q", got, want)
	}

	got, err = Annotate("<p>aaaa bbbb</p>", 5, WithFirstLine(42))
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if want := "<p>" + no(42) + "aaaa " + br(43) + "bbbb</p>"; got != want {
		t.Fatalf("Annotate(first line) = %q, want %q", got, want)
	}
}

const sampleDoc = `<p>Lorem ipsum dolor sit amet, consetetur sadipscing elitr, sed diam nonumy eirmod tempor.</p>` +
	`<ul><li>Stet clita kasd gubergren, no sea takimata sanctus est.</li><li><strong>Lorem</strong> ipsum <em>dolor sit amet</em>, consetetur.</li></ul>` +
	`<ol start="3"><li>At vero eos et accusam</li><li>et justo duo dolores et ea rebum.</li></ol>` +
	`<blockquote><p>Duis autem vel eum iriure dolor in hendrerit in vulputate velit esse molestie consequat.</p></blockquote>`

func TestAnnotateIdempotent(t *testing.T) {
	for _, length := range []int{20, 35, 80} {
		once, err := Annotate(sampleDoc, length)
		if err != nil {
			t.Fatalf("Annotate failed: %v", err)
		}
		twice, err := Annotate(once, length)
		if err != nil {
			t.Fatalf("Annotate failed: %v", err)
		}
		if once != twice {
			t.Fatalf("Annotate is not idempotent at length %d:\nonce:  %s\ntwice: %s", length, once, twice)
		}
	}
}

func TestStripLineNumbersRoundTrip(t *testing.T) {
	for _, length := range []int{20, 35, 80} {
		numbered, err := Annotate(sampleDoc, length)
		if err != nil {
			t.Fatalf("Annotate failed: %v", err)
		}
		stripped, err := StripLineNumbers(numbered)
		if err != nil {
			t.Fatalf("StripLineNumbers failed: %v", err)
		}
		if stripped != sampleDoc {
			t.Fatalf("StripLineNumbers(Annotate(doc, %d)) = %q, want %q", length, stripped, sampleDoc)
		}
	}
}

func TestStripLineNumbersEditorNewline(t *testing.T) {
	in := "<p>" + no(1) + "Line 1" + br(2) + "\nLine 2</p>"
	got, err := StripLineNumbers(in)
	if err != nil {
		t.Fatalf("StripLineNumbers failed: %v", err)
	}
	if got != "<p>Line 1 Line 2</p>" {
		t.Fatalf("StripLineNumbers = %q", got)
	}
}

func TestInsertLineBreaksWithoutNumbers(t *testing.T) {
	got, err := InsertLineBreaksWithoutNumbers("<p>aaaa bbbb</p>", 5, false)
	if err != nil {
		t.Fatalf("InsertLineBreaksWithoutNumbers failed: %v", err)
	}
	if want := `<p>aaaa <br class="os-line-break">bbbb</p>`; got != want {
		t.Fatalf("InsertLineBreaksWithoutNumbers = %q, want %q", got, want)
	}

	got, err = InsertLineBreaksWithoutNumbers("<p>aa <ins>bbbb cc</ins></p>", 5, true)
	if err != nil {
		t.Fatalf("InsertLineBreaksWithoutNumbers failed: %v", err)
	}
	if want := `<p>aa <br class="os-line-break"><ins>bbbb <br class="os-line-break">cc</ins></p>`; got != want {
		t.Fatalf("InsertLineBreaksWithoutNumbers(countInserted) = %q, want %q", got, want)
	}
}

func TestLineNumberRange(t *testing.T) {
	html := "<p>" + no(5) + "A" + br(6) + "B</p><p>" + no(7) + "C</p>"
	r, err := LineNumberRange(html)
	if err != nil {
		t.Fatalf("LineNumberRange failed: %v", err)
	}
	if r != (Range{From: 5, To: 8}) {
		t.Fatalf("LineNumberRange = %+v, want {5 8}", r)
	}
	if _, err := LineNumberRange("<p>none</p>"); !errors.Is(err, ErrNoLineNumbers) {
		t.Fatalf("LineNumberRange without markers: err = %v, want ErrNoLineNumbers", err)
	}
}

func TestHeadingsWithLineNumbers(t *testing.T) {
	html := "<h2>" + no(3) + "Second</h2><h1>" + no(1) + " Title </h1><p>" + no(2) + "Text</p><h3>Unnumbered</h3>"
	got, err := HeadingsWithLineNumbers(html)
	if err != nil {
		t.Fatalf("HeadingsWithLineNumbers failed: %v", err)
	}
	want := []Heading{{LineNumber: 1, Level: 1, Text: "Title"}, {LineNumber: 3, Level: 2, Text: "Second"}}
	if len(got) != len(want) {
		t.Fatalf("got %d headings, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("heading[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSplitToParagraphs(t *testing.T) {
	got, err := SplitToParagraphs("<p>A</p><ol start=\"3\"><li>x</li><li>y</li></ol>\n<ul><li>z</li></ul>")
	if err != nil {
		t.Fatalf("SplitToParagraphs failed: %v", err)
	}
	want := []string{
		"<p>A</p>",
		`<ol start="3"><li>x</li></ol>`,
		`<ol start="4"><li>y</li></ol>`,
		"<ul><li>z</li></ul>",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d paragraphs, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHighlightLine(t *testing.T) {
	html := "<p>" + no(1) + "aaaa " + br(2) + "bbbb </p>"
	got, err := HighlightLine(html, 1)
	if err != nil {
		t.Fatalf("HighlightLine failed: %v", err)
	}
	want := "<p>" + no(1) + `<span class="highlight">aaaa </span>` + br(2) + "bbbb </p>"
	if got != want {
		t.Fatalf("HighlightLine = %q, want %q", got, want)
	}

	unchanged, err := HighlightLine(html, 9)
	if err != nil {
		t.Fatalf("HighlightLine failed: %v", err)
	}
	if unchanged != html {
		t.Fatalf("HighlightLine with unknown line changed the html: %q", unchanged)
	}
}

func TestBlockLength(t *testing.T) {
	tests := []struct {
		html string
		want int
	}{
		{"<li>x</li>", 75},
		{"<blockquote>x</blockquote>", 60},
		{`<p style="padding-left: 20px; padding-right: 10px">x</p>`, 74},
		{"<h1>x</h1>", 53},
		{"<h2>x</h2>", 60},
		{"<h3>x</h3>", 68},
		{"<div>x</div>", 80},
	}
	for _, tt := range tests {
		root := htmltree.MustParse(tt.html)
		if got := BlockLength(root.Children[0], 80); got != tt.want {
			t.Errorf("BlockLength(%s) = %d, want %d", tt.html, got, tt.want)
		}
	}
}

func TestAnnotateConcurrentCallsAreIndependent(t *testing.T) {
	docs := make([]string, 16)
	want := make([]string, len(docs))
	for i := range docs {
		docs[i] = fmt.Sprintf("<p>Paragraph %d with enough words to wrap onto several lines</p><ul><li>Item %d</li></ul>", i, i)
		got, err := Annotate(docs[i], 20, WithFirstLine(i+1))
		if err != nil {
			t.Fatalf("Annotate(%d): %v", i, err)
		}
		want[i] = got
	}

	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				got, err := Annotate(docs[i], 20, WithFirstLine(i+1))
				if err != nil {
					t.Errorf("Annotate(%d): %v", i, err)
					return
				}
				if got != want[i] {
					t.Errorf("Annotate(%d) concurrently = %q, want %q", i, got, want[i])
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
