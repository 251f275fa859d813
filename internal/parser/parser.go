package parser

import (
	"path"
	"strings"

	"github.com/dgallion1/qaindex/internal/document"
)

// Parser converts a decoded corpus file into a Document.
type Parser interface {
	Parse(file *document.RawFile) *document.Document
}

// titleFromPath strips directories and the extension from a corpus path.
func titleFromPath(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
