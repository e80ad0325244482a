package diff

import (
	"fmt"
	"io"
)

// DefaultContextLines is the number of unchanged lines shown around a
// change.
const DefaultContextLines = 3

type hunk struct {
	start int
	end   int
}

// buildHunks groups the changes of lines with up to contextLines unchanged
// lines on either side. Overlapping groups are joined.
func buildHunks(lines []DiffLine, contextLines int) []hunk {
	if contextLines < 0 {
		contextLines = 0
	}

	var hunks []hunk
	for i, dl := range lines {
		if dl.Type == Equal {
			continue
		}

		start := max(i-contextLines, 0)
		end := min(i+contextLines+1, len(lines))

		if len(hunks) == 0 || start > hunks[len(hunks)-1].end {
			hunks = append(hunks, hunk{start: start, end: end})
			continue
		}
		if end > hunks[len(hunks)-1].end {
			hunks[len(hunks)-1].end = end
		}
	}
	return hunks
}

// lineRange returns the display line numbers the hunk covers on either
// side. A side without lines starts at the line before the hunk.
func (h hunk) lineRange(lines []DiffLine) (oldStart, oldCount, newStart, newCount int) {
	lastOld, lastNew := 0, 0
	for i := 0; i < h.start; i++ {
		if lines[i].OldNumber > 0 {
			lastOld = lines[i].OldNumber
		}
		if lines[i].NewNumber > 0 {
			lastNew = lines[i].NewNumber
		}
	}

	for i := h.start; i < h.end; i++ {
		if n := lines[i].OldNumber; n > 0 {
			if oldCount == 0 {
				oldStart = n
			}
			oldCount++
		}
		if n := lines[i].NewNumber; n > 0 {
			if newCount == 0 {
				newStart = n
			}
			newCount++
		}
	}

	if oldCount == 0 {
		oldStart = lastOld
	}
	if newCount == 0 {
		newStart = lastNew
	}
	return oldStart, oldCount, newStart, newCount
}

// WriteUnified writes lines as a unified diff between the documents named
// oldName and newName. Nothing is written when lines holds no change.
func WriteUnified(w io.Writer, oldName, newName string, lines []DiffLine, contextLines int) error {
	if !Changed(lines) {
		return nil
	}

	if _, err := fmt.Fprintf(w, "--- %s\n+++ %s\n", oldName, newName); err != nil {
		return err
	}
	for _, h := range buildHunks(lines, contextLines) {
		oldStart, oldCount, newStart, newCount := h.lineRange(lines)
		if _, err := fmt.Fprintf(w, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount); err != nil {
			return err
		}

		for _, dl := range lines[h.start:h.end] {
			var marker byte
			switch dl.Type {
			case Equal:
				marker = ' '
			case Inserted:
				marker = '+'
			case Deleted:
				marker = '-'
			}
			if _, err := fmt.Fprintf(w, "%c%s\n", marker, dl.Text); err != nil {
				return err
			}
		}
	}
	return nil
}
