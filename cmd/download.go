// Package cmd — download command.
// This is the main command that orchestrates the export:
// authenticate → locate notebook/section → list pages → build tree →
// convert in parallel → report.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gaurav-prasanna/notemark/core"
	"github.com/gaurav-prasanna/notemark/core/convert"
	"github.com/gaurav-prasanna/notemark/core/images"
	"github.com/gaurav-prasanna/notemark/core/normalize"
	"github.com/gaurav-prasanna/notemark/core/output"
	"github.com/gaurav-prasanna/notemark/core/pagetree"
	"github.com/gaurav-prasanna/notemark/core/render"
	"github.com/gaurav-prasanna/notemark/graph"
)

// defaultClientID is the shared application registration used when the
// caller does not bring their own.
const defaultClientID = "8e1a6f85-d243-41ac-a6d3-4b7fd05ce004"

// Flag variables.
var (
	flagNotebook    string
	flagSection     string
	flagOutputDir   string
	flagClientID    string
	flagConcurrency int
	flagPDF         bool
	flagVerbose     bool
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a notebook's pages and convert them to Markdown",
	Long: `Download authenticates against the Microsoft Graph API, retrieves the
pages of a notebook (one section or all of them), and converts each
page's HTML to Markdown with images stored locally.

Examples:
  notemark download --notebook "Work"
  notemark download --notebook "Work" --section "Journal" --output-dir ./notes
  notemark download --notebook "Work" --pdf`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&flagNotebook, "notebook", "", "Name of the notebook (required)")
	downloadCmd.Flags().StringVar(&flagSection, "section", "", "Section to download (default: all sections)")
	downloadCmd.Flags().StringVar(&flagOutputDir, "output-dir", "./output", "Output directory for Markdown files")
	downloadCmd.Flags().StringVar(&flagClientID, "client-id", defaultClientID, "Graph API application (client) ID")
	downloadCmd.Flags().IntVar(&flagConcurrency, "concurrency", convert.DefaultConcurrency, "Number of pages converted in parallel")
	downloadCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Also render each page as PDF")
	downloadCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Verbose logging")
	downloadCmd.MarkFlagRequired("notebook")

	viper.BindPFlag("client_id", downloadCmd.Flags().Lookup("client-id"))
	viper.BindPFlag("output_dir", downloadCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("concurrency", downloadCmd.Flags().Lookup("concurrency"))
}

func runDownload(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	tokens := graph.NewTokenSource(graph.InteractiveAuth(viper.GetString("client_id")))
	client := graph.NewClient(tokens, logger)
	ctx := context.Background()

	fmt.Fprintf(os.Stdout, "Looking for notebook %q...\n", flagNotebook)
	notebook, err := findNotebook(ctx, client, flagNotebook)
	if err != nil {
		return err
	}

	sections, err := client.ListSections(ctx, notebook.ID)
	if err != nil {
		return err
	}
	if len(sections) == 0 {
		return fmt.Errorf("no sections found in notebook %q", flagNotebook)
	}

	if flagSection != "" {
		sections = filterSections(sections, flagSection)
		if len(sections) == 0 {
			return fmt.Errorf("section %q not found in notebook %q", flagSection, flagNotebook)
		}
	} else {
		fmt.Fprintf(os.Stdout, "Downloading all %d sections\n", len(sections))
	}

	renderers := []core.Renderer{render.NewMarkdownRenderer()}
	if flagPDF {
		renderers = append(renderers, render.NewPDFRenderer())
	}
	normalizer := normalize.New(images.New(logger), logger)

	for _, section := range sections {
		if err := downloadSection(ctx, client, normalizer, renderers, section, logger); err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stdout, "\nAll conversions completed.")
	return nil
}

// downloadSection exports one section into its own directory.
func downloadSection(
	ctx context.Context,
	client *graph.Client,
	normalizer *normalize.Normalizer,
	renderers []core.Renderer,
	section core.Section,
	logger *slog.Logger,
) error {
	fmt.Fprintf(os.Stdout, "\nProcessing section: %s\n", section.DisplayName)

	writer, err := output.New(filepath.Join(viper.GetString("output_dir"), section.DisplayName))
	if err != nil {
		return err
	}

	records, err := client.ListPages(ctx, section.ID)
	if err != nil {
		return fmt.Errorf("listing pages of %q: %w", section.DisplayName, err)
	}
	roots := pagetree.Build(records, logger)

	fmt.Fprintln(os.Stdout, "\nPage hierarchy:")
	printHierarchy(roots, 0)
	fmt.Fprintf(os.Stdout, "\nConverting %d pages to Markdown...\n", pagetree.Count(roots))

	orchestrator := &convert.Orchestrator{
		Source:      client,
		Normalizer:  normalizer,
		Renderers:   renderers,
		Writer:      writer,
		Token:       client.CurrentToken,
		Concurrency: viper.GetInt("concurrency"),
		Logger:      logger,
	}
	summary := orchestrator.Run(ctx, roots)

	if len(summary.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "\n✗ %d/%d pages failed in section %q:\n",
			len(summary.Failures), summary.Total, section.DisplayName)
		for _, f := range summary.Failures {
			fmt.Fprintf(os.Stderr, "  • %s: %v\n", f.Title, f.Err)
		}
	} else {
		fmt.Fprintf(os.Stdout, "\n✓ Converted all %d pages in section %q\n",
			summary.Total, section.DisplayName)
	}
	return nil
}

// findNotebook locates a notebook by display name.
func findNotebook(ctx context.Context, client *graph.Client, name string) (*core.Notebook, error) {
	notebooks, err := client.ListNotebooks(ctx)
	if err != nil {
		return nil, err
	}
	for _, nb := range notebooks {
		if nb.DisplayName == name {
			return &nb, nil
		}
	}
	return nil, fmt.Errorf("notebook %q not found", name)
}

// filterSections keeps only the section with the given display name.
func filterSections(sections []core.Section, name string) []core.Section {
	var out []core.Section
	for _, s := range sections {
		if s.DisplayName == name {
			out = append(out, s)
		}
	}
	return out
}

// printHierarchy prints the reconstructed page tree, two spaces of
// indent per nesting level.
func printHierarchy(nodes []*core.PageNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(os.Stdout, "%s• %s\n", strings.Repeat("  ", depth), n.Title)
		printHierarchy(n.Children, depth+1)
	}
}
