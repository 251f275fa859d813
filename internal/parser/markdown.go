package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/qaindex/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultMaxLevel tracks every Markdown heading level.
const DefaultMaxLevel = 6

// MarkdownParser splits Markdown into heading-delimited sections using goldmark.
type MarkdownParser struct {
	// MaxLevel is the deepest heading level that starts a section. Deeper
	// headings stay in the enclosing section's body.
	MaxLevel int
}

// NewMarkdownParser returns a parser tracking headings up to maxLevel.
func NewMarkdownParser(maxLevel int) *MarkdownParser {
	if maxLevel < 1 || maxLevel > 6 {
		maxLevel = DefaultMaxLevel
	}
	return &MarkdownParser{MaxLevel: maxLevel}
}

type headingMark struct {
	level     int
	title     string
	start     int
	bodyStart int
}

func (p *MarkdownParser) Parse(file *document.RawFile) *document.Document {
	raw := file.Text
	doc := &document.Document{
		Path:  file.Path,
		Title: titleFromPath(file.Path),
		Raw:   raw,
		Hash:  document.ContentHashHex([]byte(raw)),
	}

	fm, offset, err := splitFrontMatter(raw)
	if err != nil {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("front matter: %s", err))
	}
	if fm.Title != "" {
		doc.Title = fm.Title
	}
	doc.Tags = fm.Tags

	marks := p.headings([]byte(raw[offset:]))
	if len(marks) == 0 {
		return doc
	}

	// Headings are located relative to the post-front-matter text.
	for i := range marks {
		marks[i].start += offset
		marks[i].bodyStart += offset
	}

	type crumb struct {
		level int
		title string
	}
	var stack []crumb

	line := 1
	lineAt := 0
	for i, m := range marks {
		end := len(raw)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		line += strings.Count(raw[lineAt:m.start], "\n")
		lineAt = m.start

		for len(stack) > 0 && stack[len(stack)-1].level >= m.level {
			stack = stack[:len(stack)-1]
		}
		var breadcrumb []string
		for _, c := range stack {
			breadcrumb = append(breadcrumb, c.title)
		}
		stack = append(stack, crumb{level: m.level, title: m.title})

		body := raw[m.bodyStart:end]
		bodyLine := line + strings.Count(raw[m.start:m.bodyStart], "\n")
		blocks, warnings := scanFences(body, bodyLine)

		doc.Sections = append(doc.Sections, &document.Section{
			DocPath:    doc.Path,
			Ordinal:    i,
			Level:      m.level,
			Heading:    m.title,
			Breadcrumb: breadcrumb,
			Line:       line,
			Start:      m.start,
			BodyStart:  m.bodyStart,
			End:        end,
			Body:       body,
			CodeBlocks: blocks,
			Malformed:  len(warnings) > 0,
			Warnings:   warnings,
		})
	}
	return doc
}

// headings returns the tracked top-level headings of src in order, with
// offsets of the heading line start and the first body byte.
func (p *MarkdownParser) headings(src []byte) []headingMark {
	maxLevel := p.MaxLevel
	if maxLevel < 1 || maxLevel > 6 {
		maxLevel = DefaultMaxLevel
	}

	// Segments split at headings that end an unterminated fence are parsed
	// separately so goldmark sees those headings at the top level.
	bounds := append([]int{0}, fenceBoundaries(src)...)
	bounds = append(bounds, len(src))

	var marks []headingMark
	for i := 0; i+1 < len(bounds); i++ {
		base := bounds[i]
		for _, m := range segmentHeadings(src[base:bounds[i+1]], maxLevel) {
			m.start += base
			m.bodyStart += base
			marks = append(marks, m)
		}
	}
	return marks
}

func segmentHeadings(src []byte, maxLevel int) []headingMark {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var marks []headingMark
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > maxLevel {
			continue
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			continue
		}
		first := lines.At(0)
		last := lines.At(lines.Len() - 1)

		start := lineStart(src, first.Start)
		stop := last.Stop - 1
		if stop < last.Start {
			stop = last.Start
		}
		bodyStart := lineEnd(src, stop)
		if !isATX(src[start:]) {
			// Setext: the underline belongs to the heading.
			bodyStart = lineEnd(src, bodyStart)
		}

		marks = append(marks, headingMark{
			level:     h.Level,
			title:     strings.Join(strings.Fields(inlineText(h, src)), " "),
			start:     start,
			bodyStart: bodyStart,
		})
	}
	return marks
}

// inlineText gets the plain text of a goldmark node's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}

func lineStart(src []byte, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	return bytes.LastIndexByte(src[:pos], '\n') + 1
}

func lineEnd(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	i := bytes.IndexByte(src[pos:], '\n')
	if i < 0 {
		return len(src)
	}
	return pos + i + 1
}

// isATX reports whether line opens with 1-6 '#' followed by a space, tab or
// line end.
func isATX(line []byte) bool {
	trimmed := bytes.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return false
	}
	return n == len(trimmed) || trimmed[n] == ' ' || trimmed[n] == '\t' || trimmed[n] == '\n'
}
