package parser

import (
	"bytes"
	"strings"
)

type srcLine struct {
	start int
	text  string // without the trailing newline
}

func splitLines(src []byte) []srcLine {
	var lines []srcLine
	for pos := 0; pos < len(src); {
		end := bytes.IndexByte(src[pos:], '\n')
		if end < 0 {
			lines = append(lines, srcLine{start: pos, text: string(src[pos:])})
			break
		}
		lines = append(lines, srcLine{start: pos, text: string(src[pos : pos+end])})
		pos += end + 1
	}
	return lines
}

// fenceBoundaries returns the offsets of heading lines that end a top-level
// fence left open. A fence counts as closed only when its closing line comes
// before the next fence opener with an info string. An open fence ends at the
// first heading line after it, so one missing delimiter cannot swallow the
// rest of the file.
func fenceBoundaries(src []byte) []int {
	lines := splitLines(src)
	var cuts []int
	for i := 0; i < len(lines); i++ {
		f, ok := topLevelFence(lines[i].text)
		if !ok {
			continue
		}

		closed := -1
		for j := i + 1; j < len(lines); j++ {
			if closesFence(lines[j].text, &f) {
				closed = j
				break
			}
			if g, ok := openingFence(lines[j].text); ok && g.info != "" {
				break
			}
		}
		if closed >= 0 {
			i = closed
			continue
		}

		next := -1
		for j := i + 1; j < len(lines); j++ {
			if isHeadingLine(lines, j) {
				next = j
				break
			}
		}
		if next < 0 {
			break
		}
		cuts = append(cuts, lines[next].start)
		i = next - 1
	}
	return cuts
}

// topLevelFence matches a fence opener indented by at most three spaces.
func topLevelFence(line string) (fence, bool) {
	if len(line)-len(strings.TrimLeft(line, " ")) > 3 {
		return fence{}, false
	}
	return openingFence(line)
}

// isHeadingLine reports whether lines[i] starts an ATX heading or is the text
// line of a setext heading.
func isHeadingLine(lines []srcLine, i int) bool {
	text := lines[i].text
	if isATX([]byte(text)) {
		return true
	}
	if i+1 >= len(lines) || strings.TrimSpace(text) == "" {
		return false
	}
	if len(text)-len(strings.TrimLeft(text, " ")) > 3 {
		return false
	}
	if _, ok := openingFence(text); ok {
		return false
	}
	under := strings.TrimSpace(lines[i+1].text)
	if under == "" {
		return false
	}
	return strings.Trim(under, "=") == "" || strings.Trim(under, "-") == ""
}
