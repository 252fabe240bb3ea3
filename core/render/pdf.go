// Package render — PDF renderer.
// Optional second output format: renders the canonical Markdown of a
// page into a styled PDF with gofpdf. Headings get scaled fonts, code
// blocks a monospace face with a light background. Downloaded images
// are referenced from the Markdown output only; they are not embedded
// in the PDF.
package render

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer renders a page as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

var numberedItem = regexp.MustCompile(`^\d+\.\s`)

// Render converts the page Markdown into PDF bytes, with the page
// title as the document heading.
func (r *PDFRenderer) Render(markdown string, title string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, title, "", "L", false)
		pdf.Ln(4)
	}

	inCodeBlock := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, line, "", "L", true)
			continue
		}

		if trimmed == "" {
			pdf.Ln(3)
			continue
		}

		if strings.HasPrefix(line, "#") {
			level := 0
			for _, ch := range line {
				if ch != '#' {
					break
				}
				level++
			}
			writeHeading(pdf, strings.TrimSpace(strings.TrimLeft(line, "# ")), level)
			continue
		}

		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, "• "+stripInlineMarkdown(trimmed[2:]), "", "L", false)
			continue
		}

		if numberedItem.MatchString(trimmed) {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, stripInlineMarkdown(trimmed), "", "L", false)
			continue
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, stripInlineMarkdown(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// writeHeading sets the font size based on heading level and writes text.
func writeHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, stripInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

// stripInlineMarkdown removes inline Markdown formatting that the PDF
// cannot represent, keeping the readable text.
func stripInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`).ReplaceAllString(text, " $1 ")
	text = regexp.MustCompile("`([^`]+)`").ReplaceAllString(text, "$1")
	text = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]+\)`).ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
