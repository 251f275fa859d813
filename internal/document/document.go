package document

import (
	"crypto/sha256"
	"fmt"
)

// RawFile is a corpus file as read from disk, before parsing.
type RawFile struct {
	Path string // Slash-separated path relative to the corpus root
	Text string // Decoded UTF-8 text
}

// Document is one parsed corpus file.
type Document struct {
	Path     string     // Identifier, relative to the corpus root
	Title    string     // Front-matter title, else the file name without extension
	Tags     []string   // Front-matter tags
	Raw      string     // Full decoded text
	Hash     string     // SHA-256 hex of Raw
	Sections []*Section // Heading-delimited sections, in document order
	Warnings []string   // Non-fatal document-level problems
}

// Section is a heading-delimited unit of a Document.
type Section struct {
	ID      int    // Position in the loaded corpus (document order, then section order)
	DocPath string // Owning document's Path; lookup only
	Ordinal int    // Position within the owning document

	Level      int      // Heading level, 1-6
	Heading    string   // Plain heading text
	Breadcrumb []string // Headings of enclosing higher-level sections
	Line       int      // 1-based line of the heading

	// Byte offsets into Document.Raw: [Start:BodyStart] is the heading,
	// [BodyStart:End] is the body.
	Start     int
	BodyStart int
	End       int

	Body       string
	CodeBlocks []CodeBlock

	Malformed bool
	Warnings  []string
}

// CodeBlock is a fenced code block captured verbatim from a section body.
type CodeBlock struct {
	Lang         string // First word of the info string; free text, may be empty
	Info         string // Full info string
	Code         string // Literal text between the delimiters
	Line         int    // 1-based line of the opening delimiter
	Unterminated bool   // No closing delimiter before the section ended
}

// HeadingSource returns the raw heading line(s) of s within doc.
func (s *Section) HeadingSource(doc *Document) string {
	return doc.Raw[s.Start:s.BodyStart]
}

// Languages returns the distinct non-empty code block languages of s, in order.
func (s *Section) Languages() []string {
	var out []string
	seen := make(map[string]bool)
	for _, cb := range s.CodeBlocks {
		if cb.Lang == "" || seen[cb.Lang] {
			continue
		}
		seen[cb.Lang] = true
		out = append(out, cb.Lang)
	}
	return out
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
