package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// RenderHTML converts a Markdown fragment to HTML. Raw HTML in the source is
// omitted by goldmark's default renderer.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Preview returns up to maxRunes of the prose in a Markdown fragment, with
// code blocks dropped and whitespace collapsed.
func Preview(markdown string, maxRunes int) (string, error) {
	rendered, err := RenderHTML(markdown)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	text := strings.Join(strings.Fields(textContent(doc)), " ")
	if maxRunes <= 0 {
		return text, nil
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text, nil
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "…", nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "pre" {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
