// Package convert walks a section's reconstructed page tree and fans
// the per-page work (fetch content, normalize, render, write) out
// across a bounded worker pool. A page either reaches Written or
// Failed; one page's failure never aborts its siblings.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/notemark/core"
	"github.com/gaurav-prasanna/notemark/core/normalize"
	"github.com/gaurav-prasanna/notemark/core/output"
	"github.com/gaurav-prasanna/notemark/core/render"
)

// DefaultConcurrency is the worker pool size when none is configured.
const DefaultConcurrency = 5

// Orchestrator converts every page of one section.
type Orchestrator struct {
	Source      core.PageSource
	Normalizer  *normalize.Normalizer
	Renderers   []core.Renderer
	Writer      *output.Writer
	Token       func() string // current bearer credential for image fetches; may be nil
	Concurrency int
	Logger      *slog.Logger
}

// Flatten turns the forest into a task list by pre-order traversal.
// Children of a top-level page are assigned that page's directory;
// deeper descendants inherit the same directory, so a section nests at
// most one level of directories and child pages always sit exactly one
// level below the shared image store's parent.
func Flatten(roots []*core.PageNode, w *output.Writer) []core.ConversionTask {
	var tasks []core.ConversionTask
	var walk func(n *core.PageNode, parentDir string)
	walk = func(n *core.PageNode, parentDir string) {
		tasks = append(tasks, core.ConversionTask{Page: n, ParentDir: parentDir})
		childDir := parentDir
		if parentDir == "" {
			childDir = w.ChildDir(n.Title)
		}
		for _, c := range n.Children {
			walk(c, childDir)
		}
	}
	for _, r := range roots {
		walk(r, "")
	}
	return tasks
}

// Run converts all pages and reports the batch outcome. Workers share
// only the output directory tree; every task carries its own state, so
// results are collected without locking into per-task slots.
func (o *Orchestrator) Run(ctx context.Context, roots []*core.PageNode) core.Summary {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tasks := Flatten(roots, o.Writer)

	concurrency := o.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]core.ConversionResult, len(tasks))

	// Plain errgroup, no shared context cancellation: workers always
	// return nil so a failed page cannot cancel its siblings.
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = o.convertOne(ctx, task, logger)
			return nil
		})
	}
	g.Wait()

	summary := core.Summary{Total: len(tasks)}
	for _, res := range results {
		if res.Err != nil {
			summary.Failures = append(summary.Failures, res)
			continue
		}
		summary.Written++
	}
	return summary
}

// convertOne takes a single task from Converting to a terminal state.
func (o *Orchestrator) convertOne(ctx context.Context, task core.ConversionTask, logger *slog.Logger) core.ConversionResult {
	res := core.ConversionResult{Title: task.Page.Title}

	content, err := o.Source.GetPageContent(ctx, task.Page.ID)
	if err != nil {
		res.Err = fmt.Errorf("fetching content: %w", err)
		return res
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		res.Err = fmt.Errorf("parsing HTML: %w", err)
		return res
	}

	var token string
	if o.Token != nil {
		token = o.Token()
	}
	o.Normalizer.Apply(ctx, doc, normalize.Page{
		Title:     task.Page.Title,
		ImagesDir: o.Writer.ImagesDir(),
		ChildPage: task.ParentDir != "",
		Token:     token,
	})

	serialized, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		res.Err = fmt.Errorf("serializing HTML: %w", err)
		return res
	}

	markdown, err := render.HTMLToMarkdown(serialized)
	if err != nil {
		res.Err = fmt.Errorf("rendering markdown: %w", err)
		return res
	}

	for _, renderer := range o.Renderers {
		data, err := renderer.Render(markdown, task.Page.Title)
		if err != nil {
			res.Err = fmt.Errorf("rendering %s: %w", renderer.Extension(), err)
			return res
		}
		path, err := o.Writer.Write(task, data, renderer.Extension())
		if err != nil {
			res.Err = err
			return res
		}
		logger.Info("converted page",
			slog.String("title", task.Page.Title),
			slog.String("path", path))
	}

	return res
}
