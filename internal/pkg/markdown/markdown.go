// Package markdown renders post bodies to HTML and derives plain-text excerpts.
package markdown

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

const (
	ExcerptLength = 150
	ellipsis      = "..."
)

// Raw HTML in post content is escaped, never passed through.
var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// Render converts markdown to HTML. Blank input renders to "".
func Render(source string) (string, error) {
	text := strings.TrimSpace(source)
	if text == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := engine.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Excerpt returns the first ExcerptLength characters of content, with "..."
// appended when anything was cut. Characters are counted as runes.
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:ExcerptLength]) + ellipsis
}
