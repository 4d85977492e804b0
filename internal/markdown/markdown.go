// Package markdown renders post content for previews and derives plain-text
// excerpts when the author left the excerpt field empty.
package markdown

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// Render converts markdown source to HTML.
func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Excerpt derives a plain-text excerpt of at most max runes from markdown
// source, stripping headings, emphasis markers and link targets.
func Excerpt(source string, max int) string {
	var b strings.Builder

	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.TrimLeft(line, "#> ")
		line = stripInline(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
		if b.Len() >= max {
			break
		}
	}

	text := b.String()
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	// cut at a word boundary
	cut := max
	for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = max
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}

func stripInline(line string) string {
	replacer := strings.NewReplacer("**", "", "__", "", "*", "", "_", "", "`", "")
	line = replacer.Replace(line)

	// collapse [text](url) to text
	for {
		open := strings.Index(line, "[")
		mid := strings.Index(line, "](")
		if open == -1 || mid == -1 || mid < open {
			break
		}
		end := strings.Index(line[mid:], ")")
		if end == -1 {
			break
		}
		line = line[:open] + line[open+1:mid] + line[mid+end+1:]
	}

	return strings.TrimSpace(line)
}
