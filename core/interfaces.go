// Package core defines the data model and pipeline interfaces for notemark.
// Each stage of the export pipeline is a clean, testable interface.
package core

import (
	"context"
	"net/http"
)

// PageRecord is one entry from the flat, paginated page listing.
// Order is the API's numeric sort key; Level is the nesting depth (0 = root).
type PageRecord struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Level int     `json:"level"`
	Order float64 `json:"order"`
}

// PageNode is a page with its reconstructed children. Children are
// appended during tree construction and are ordered by the listing's
// sort key; the node is not mutated afterwards.
type PageNode struct {
	ID       string
	Title    string
	Level    int
	Order    float64
	Children []*PageNode
}

// ConversionTask is one unit of work for the worker pool. ParentDir is
// empty for top-level pages; for nested pages it names the directory
// (under the section root) that holds the page's Markdown file.
type ConversionTask struct {
	Page      *PageNode
	ParentDir string
}

// ConversionResult is the terminal outcome of one task. Err is nil on
// success.
type ConversionResult struct {
	Title string
	Err   error
}

// Summary aggregates a batch of conversion results.
type Summary struct {
	Total    int
	Written  int
	Failures []ConversionResult
}

// Notebook is a notebook listed by the notes API.
type Notebook struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Section is a named collection of pages within a notebook.
type Section struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// PageSource fetches raw page HTML from the notes API.
type PageSource interface {
	GetPageContent(ctx context.Context, pageID string) (string, error)
}

// ImageDownloader saves a remote image into destDir and returns the
// local filename. The per-page counter is threaded explicitly so that
// concurrent workers never share naming state.
type ImageDownloader interface {
	Download(ctx context.Context, imageURL, destDir, pageTitle string, header http.Header, counter *int) (string, error)
}

// Renderer converts canonical Markdown (plus the page title) into the
// final file bytes for one output format.
type Renderer interface {
	Render(markdown string, title string) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
