// Package normalize rewrites a parsed page document before Markdown
// conversion. Four passes run in order:
//  1. Clear machine-generated image alt text
//  2. Promote bold-styled spans to semantic <b> elements
//  3. Download images and rewrite their sources to local paths
//  4. Replace anchors whose text equals their href with plain text
//
// Each pass is exposed on its own so it can be tested in isolation;
// only the image pass touches the network.
package normalize

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/notemark/core"
)

// altTextMarker prefixes the placeholder alt text the authoring tool
// inserts for images; it is noise, not authored content.
const altTextMarker = "Machine generated alternative text:"

// contentHost is the notes API host whose image URLs require a bearer
// credential.
const contentHost = "graph.microsoft.com"

// staleImageAttrs are provider-specific attributes that stop making
// sense once an image source points at a local file.
var staleImageAttrs = []string{"data-src-type", "data-fullres-src", "data-fullres-src-type"}

// Page carries the per-page context the image pass needs.
type Page struct {
	Title     string
	ImagesDir string // section's shared image store, on disk
	ChildPage bool   // Markdown lives one directory below the store's parent
	Token     string // bearer credential for contentHost image URLs
}

// Normalizer applies the rewrite passes to a document.
type Normalizer struct {
	images core.ImageDownloader
	logger *slog.Logger
}

// New creates a Normalizer. A nil logger falls back to slog.Default.
func New(images core.ImageDownloader, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{images: images, logger: logger}
}

// Apply runs all passes in place. Image failures are logged and
// skipped; they never fail the page.
func (n *Normalizer) Apply(ctx context.Context, doc *goquery.Document, page Page) {
	ScrubAltText(doc)
	PromoteBoldSpans(doc)
	n.ResolveImages(ctx, doc, page)
	SimplifyLinks(doc)
}

// ScrubAltText clears the alt attribute of any image whose alt text
// begins with the auto-generated marker phrase.
func ScrubAltText(doc *goquery.Document) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); ok && strings.HasPrefix(alt, altTextMarker) {
			s.SetAttr("alt", "")
		}
	})
}

// PromoteBoldSpans replaces spans styled with a bold font weight
// (keyword or its 700 numeric equivalent) by a <b> element holding the
// span's children, so the Markdown conversion sees real emphasis.
func PromoteBoldSpans(doc *goquery.Document) {
	doc.Find("span").Each(func(_ int, s *goquery.Selection) {
		style, ok := s.Attr("style")
		if !ok {
			return
		}
		style = strings.ReplaceAll(style, " ", "")
		if !strings.Contains(style, "font-weight:bold") && !strings.Contains(style, "font-weight:700") {
			return
		}
		inner, err := s.Html()
		if err != nil {
			return
		}
		s.ReplaceWithHtml("<b>" + inner + "</b>")
	})
}

// ResolveImages downloads each image and rewrites its src to the local
// relative path. The high-resolution source is preferred over the
// standard one, and content-host URLs carry the page's bearer token.
// A failed download leaves the element untouched and moves on.
func (n *Normalizer) ResolveImages(ctx context.Context, doc *goquery.Document, page Page) {
	counter := 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("data-fullres-src")
		if !ok {
			src, ok = s.Attr("src")
		}
		if !ok || src == "" {
			return
		}

		var header http.Header
		if page.Token != "" && strings.Contains(src, contentHost) {
			header = http.Header{"Authorization": []string{"Bearer " + page.Token}}
		}

		name, err := n.images.Download(ctx, src, page.ImagesDir, page.Title, header, &counter)
		if err != nil {
			n.logger.Warn("skipping image",
				slog.String("page", page.Title),
				slog.String("url", src),
				slog.String("error", err.Error()))
			return
		}

		rel := "images/" + name
		if page.ChildPage {
			rel = "../" + rel
		}
		s.SetAttr("src", rel)
		for _, attr := range staleImageAttrs {
			s.RemoveAttr(attr)
		}
	})
}

// SimplifyLinks replaces anchors whose visible text exactly equals
// their href with a bare text node, dropping the redundant markup that
// pasted links produce.
func SimplifyLinks(doc *goquery.Document) {
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.TrimSpace(s.Text()) != href {
			return
		}
		s.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: href})
	})
}
