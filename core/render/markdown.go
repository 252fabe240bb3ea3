// Package render converts normalized page HTML into output files.
// Markdown is the canonical format: HTML structure (headings, lists,
// emphasis, tables, links, images) is converted by html-to-markdown,
// then whitespace is canonicalized so the same input always yields
// byte-identical output.
package render

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// HTMLToMarkdown converts an HTML fragment into canonical Markdown.
func HTMLToMarkdown(html string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return Canonicalize(markdown), nil
}

// Canonicalize trims trailing whitespace per line, collapses runs of
// two or more blank lines into one, and strips leading and trailing
// blank lines from the whole document.
func Canonicalize(markdown string) string {
	lines := strings.Split(markdown, "\n")

	cleaned := make([]string, 0, len(lines))
	prevBlank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !prevBlank {
				cleaned = append(cleaned, "")
			}
			prevBlank = true
			continue
		}
		cleaned = append(cleaned, line)
		prevBlank = false
	}

	for len(cleaned) > 0 && cleaned[0] == "" {
		cleaned = cleaned[1:]
	}
	for len(cleaned) > 0 && cleaned[len(cleaned)-1] == "" {
		cleaned = cleaned[:len(cleaned)-1]
	}

	return strings.Join(cleaned, "\n")
}

// MarkdownRenderer writes the page as `# {title}`, a blank line, and
// the canonical Markdown body.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the full Markdown file contents.
func (r *MarkdownRenderer) Render(markdown string, title string) ([]byte, error) {
	return []byte(fmt.Sprintf("# %s\n\n%s", title, markdown)), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
