package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	html, err := r.Render("# Hello\n\nsome *emphasis* here")
	assert.NoError(t, err)
	assert.Contains(t, html, "<h1>Hello</h1>")
	assert.Contains(t, html, "<em>emphasis</em>")
}

func TestRenderer_RenderGFMTable(t *testing.T) {
	r := NewRenderer()

	html, err := r.Render("| a | b |\n|---|---|\n| 1 | 2 |")
	assert.NoError(t, err)
	assert.Contains(t, html, "<table>")
}

func TestExcerpt(t *testing.T) {
	source := "# Heading\n\nSome **bold** text with a [link](https://example.com) inside."

	got := Excerpt(source, 200)
	assert.Equal(t, "Heading Some bold text with a link inside.", got)
}

func TestExcerpt_Truncates(t *testing.T) {
	got := Excerpt("one two three four five", 9)
	assert.Equal(t, "one two…", got)
}

func TestExcerpt_SkipsCodeFences(t *testing.T) {
	source := "```go\nfmt.Println(1)\n```\nafter the fence"

	got := Excerpt(source, 200)
	assert.Contains(t, got, "after the fence")
	assert.NotContains(t, got, "```")
}
