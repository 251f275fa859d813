package parser

import (
	"strings"

	"github.com/adrg/frontmatter"
)

type frontMatter struct {
	Title string   `yaml:"title" toml:"title"`
	Tags  []string `yaml:"tags" toml:"tags"`
}

// splitFrontMatter decodes a leading YAML or TOML front matter block and
// returns the offset of the first byte after it. Documents without front
// matter return offset 0.
func splitFrontMatter(raw string) (frontMatter, int, error) {
	var fm frontMatter
	if !looksLikeFrontMatter(raw) {
		return fm, 0, nil
	}

	rest, err := frontmatter.Parse(strings.NewReader(raw), &fm)
	if err != nil {
		return frontMatter{}, 0, err
	}
	if len(rest) >= len(raw) || !strings.HasSuffix(raw, string(rest)) {
		return fm, 0, nil
	}
	return fm, len(raw) - len(rest), nil
}

// looksLikeFrontMatter rejects a leading thematic break followed by a heading
// or blank line, which study guides use as a plain separator.
func looksLikeFrontMatter(raw string) bool {
	first, rest, ok := strings.Cut(raw, "\n")
	if !ok {
		return false
	}
	first = strings.TrimRight(first, " \t")
	if first != "---" && first != "+++" {
		return false
	}
	next, _, _ := strings.Cut(rest, "\n")
	next = strings.TrimSpace(next)
	return next != "" && !strings.HasPrefix(next, "#")
}
