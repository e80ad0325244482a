package diff

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func no(n int) string {
	s := strconv.Itoa(n)
	return `<span class="os-line-number line-number-` + s + `" data-line-number="` + s + `" contenteditable="false">&nbsp;</span>`
}

func br(n int) string {
	return `<br class="os-line-break">` + no(n)
}

func makeLines(texts ...string) []Line {
	out := make([]Line, len(texts))
	for i, t := range texts {
		out[i] = Line{Number: i + 1, Text: t}
	}
	return out
}

func TestLines(t *testing.T) {
	html := `<p>` + no(1) + `Line one ` + br(2) + `Line <em>two</em></p><ul><li>` + no(3) + `Item<br>next</li></ul>`
	got, err := Lines(html)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	want := []Line{{1, "Line one"}, {2, "Line two"}, {3, "Item next"}}
	if len(got) != len(want) {
		t.Fatalf("Lines = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLinesWithoutMarkers(t *testing.T) {
	got, err := Lines(`<p>No numbers</p>`)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Lines = %+v, want none", got)
	}
}

func TestCompare(t *testing.T) {
	lines := Compare(makeLines("a", "b", "c"), makeLines("a", "c", "d"))
	var kinds []string
	for _, dl := range lines {
		switch dl.Type {
		case Equal:
			kinds = append(kinds, "="+dl.Text)
		case Inserted:
			kinds = append(kinds, "+"+dl.Text)
		case Deleted:
			kinds = append(kinds, "-"+dl.Text)
		}
	}
	if got, want := strings.Join(kinds, " "), "=a -b =c +d"; got != want {
		t.Fatalf("Compare = %q, want %q", got, want)
	}
	if lines[2].OldNumber != 3 || lines[2].NewNumber != 2 {
		t.Errorf("equal line numbers = %d/%d, want 3/2", lines[2].OldNumber, lines[2].NewNumber)
	}
	if !Changed(lines) {
		t.Error("Changed = false, want true")
	}
	if Changed(Compare(makeLines("a"), makeLines("a"))) {
		t.Error("Changed on identical input = true, want false")
	}
}

func TestWriteUnified_IncludesHunkHeader(t *testing.T) {
	before := makeLines("a", "b", "c", "d", "e")
	after := makeLines("a", "b", "C", "d", "e")

	var buf bytes.Buffer
	if err := WriteUnified(&buf, "old.html", "new.html", Compare(before, after), 1); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "--- old.html\n+++ new.html\n") {
		t.Fatalf("output missing file header:\n%s", out)
	}
	if !strings.Contains(out, "@@ -2,3 +2,3 @@\n") {
		t.Fatalf("output missing expected hunk header:\n%s", out)
	}
	if !strings.Contains(out, "-c\n") || !strings.Contains(out, "+C\n") {
		t.Fatalf("output missing changed lines:\n%s", out)
	}
	if strings.Contains(out, " a\n") || strings.Contains(out, " e\n") {
		t.Fatalf("output shows lines outside the context:\n%s", out)
	}
}

func TestWriteUnified_SplitsSeparatedChanges(t *testing.T) {
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = "line" + strconv.Itoa(i+1)
	}
	changed := append([]string(nil), texts...)
	changed[2] = "line3 changed"
	changed[17] = "line18 changed"

	var buf bytes.Buffer
	if err := WriteUnified(&buf, "a", "b", Compare(makeLines(texts...), makeLines(changed...)), DefaultContextLines); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	out := buf.String()

	if strings.Count(out, "@@ -") != 2 {
		t.Fatalf("expected 2 hunk headers, got %d:\n%s", strings.Count(out, "@@ -"), out)
	}
	if !strings.Contains(out, "@@ -1,6 +1,6 @@\n") {
		t.Fatalf("missing first hunk header:\n%s", out)
	}
	if !strings.Contains(out, "@@ -15,6 +15,6 @@\n") {
		t.Fatalf("missing second hunk header:\n%s", out)
	}
}

func TestWriteUnified_EmptySide(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUnified(&buf, "a", "b", Compare(nil, makeLines("x", "y")), DefaultContextLines); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "@@ -0,0 +1,2 @@\n") {
		t.Fatalf("missing zero-range hunk header:\n%s", buf.String())
	}
}

func TestWriteUnified_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	lines := Compare(makeLines("a"), makeLines("a"))
	if err := WriteUnified(&buf, "a", "b", lines, DefaultContextLines); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("output = %q, want empty", buf.String())
	}
}
