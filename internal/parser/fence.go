package parser

import (
	"fmt"
	"strings"

	"github.com/dgallion1/qaindex/internal/document"
)

type fence struct {
	char byte
	size int
	info string
	line int
}

// scanFences finds fenced code blocks in a section body. firstLine is the
// 1-based line number of the body's first line. A fence still open when the
// body ends is closed there and reported as a warning.
func scanFences(body string, firstLine int) ([]document.CodeBlock, []string) {
	var blocks []document.CodeBlock
	var warnings []string
	var open *fence
	var code strings.Builder

	for i, line := range strings.SplitAfter(body, "\n") {
		content := strings.TrimRight(line, "\n")
		if open == nil {
			if f, ok := openingFence(content); ok {
				f.line = firstLine + i
				open = &f
				code.Reset()
			}
			continue
		}
		if closesFence(content, open) {
			blocks = append(blocks, newCodeBlock(open, code.String(), false))
			open = nil
			continue
		}
		code.WriteString(line)
	}

	if open != nil {
		blocks = append(blocks, newCodeBlock(open, code.String(), true))
		warnings = append(warnings, fmt.Sprintf("unterminated code fence opened at line %d", open.line))
	}
	return blocks, warnings
}

func newCodeBlock(f *fence, code string, unterminated bool) document.CodeBlock {
	var lang string
	if fields := strings.Fields(f.info); len(fields) > 0 {
		lang = fields[0]
	}
	return document.CodeBlock{
		Lang:         lang,
		Info:         f.info,
		Code:         code,
		Line:         f.line,
		Unterminated: unterminated,
	}
}

// openingFence matches a run of at least three backticks or tildes followed
// by an optional info string. Backtick info strings may not contain backticks.
func openingFence(line string) (fence, bool) {
	rest := strings.TrimLeft(line, " \t")
	if len(rest) < 3 || (rest[0] != '`' && rest[0] != '~') {
		return fence{}, false
	}
	ch := rest[0]
	n := 0
	for n < len(rest) && rest[n] == ch {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	info := strings.TrimSpace(rest[n:])
	if ch == '`' && strings.Contains(info, "`") {
		return fence{}, false
	}
	return fence{char: ch, size: n, info: info}, true
}

func closesFence(line string, f *fence) bool {
	rest := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(rest) && rest[n] == f.char {
		n++
	}
	return n >= f.size && strings.TrimSpace(rest[n:]) == ""
}
