package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses blank runs", "a\n\n\n\n\n\nb", "a\n\nb"},
		{"strips leading blanks", "\n\n\na", "a"},
		{"strips trailing blanks", "a\n\n\n", "a"},
		{"trims trailing space", "a   \nb\t", "a\nb"},
		{"keeps single blank", "a\n\nb", "a\n\nb"},
		{"empty", "", ""},
		{"only blanks", "\n\n\n", ""},
		{"keeps leading indent", "- a\n  - b", "- a\n  - b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestHTMLToMarkdownStructure(t *testing.T) {
	md, err := HTMLToMarkdown(`<h2>Topic</h2><p>Some <b>bold</b> text.</p><ul><li>one</li><li>two</li></ul>`)
	require.NoError(t, err)

	assert.Contains(t, md, "## Topic")
	assert.Contains(t, md, "**bold**")
	assert.Contains(t, md, "- one")
	assert.Contains(t, md, "- two")
	assert.NotContains(t, md, "\n\n\n")
}

func TestHTMLToMarkdownKeepsLinksAndImages(t *testing.T) {
	md, err := HTMLToMarkdown(`<p><a href="http://y.com">docs</a></p><img src="images/a.png" alt="">`)
	require.NoError(t, err)

	assert.Contains(t, md, "[docs](http://y.com)")
	assert.Contains(t, md, "![](images/a.png)")
}

func TestHTMLToMarkdownDeterministic(t *testing.T) {
	in := `<h1>T</h1><p>body</p><ul><li>x</li></ul>`
	a, err := HTMLToMarkdown(in)
	require.NoError(t, err)
	b, err := HTMLToMarkdown(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarkdownRendererPrefixesTitle(t *testing.T) {
	r := NewMarkdownRenderer()
	out, err := r.Render("body text", "My Page")
	require.NoError(t, err)

	assert.Equal(t, "# My Page\n\nbody text", string(out))
	assert.Equal(t, ".md", r.Extension())
}

func TestPDFRendererProducesDocument(t *testing.T) {
	r := NewPDFRenderer()
	out, err := r.Render("## Heading\n\nSome **bold** text.\n\n- item\n\n```\ncode\n```", "Title")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(out), "%PDF"), "expected a PDF header")
	assert.Equal(t, ".pdf", r.Extension())
}

func TestStripInlineMarkdown(t *testing.T) {
	assert.Equal(t, "bold and code", stripInlineMarkdown("**bold** and `code`"))
	assert.Equal(t, "docs", stripInlineMarkdown("[docs](http://y.com)"))
	assert.Equal(t, "alt", stripInlineMarkdown("![alt](images/a.png)"))
}
