// Package pagetree reconstructs the parent/child nesting of a section's
// pages from the flat, paginated listing the notes API returns. The
// listing annotates each page with a nesting level and a sibling sort
// key; it does not carry parent IDs, so parentage is recovered from
// processing order.
package pagetree

import (
	"log/slog"
	"sort"

	"github.com/gaurav-prasanna/notemark/core"
)

// Build folds a flat page listing into an ordered forest of root nodes.
//
// Records are sorted stably by (order, level) and walked in order. A
// node at level L attaches to the most recently processed node at level
// L-1. A node with no such ancestor is demoted to a root rather than
// rejected: the API does not guarantee a well-formed tree, and a lenient
// fold keeps partial listings exportable. The reverse scan is O(n²)
// worst case, which is fine for notebook-sized inputs.
func Build(records []core.PageRecord, logger *slog.Logger) []*core.PageNode {
	if logger == nil {
		logger = slog.Default()
	}

	sorted := make([]core.PageRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].Level < sorted[j].Level
	})

	var roots []*core.PageNode
	var seen []*core.PageNode // insertion order

	for _, rec := range sorted {
		node := &core.PageNode{
			ID:    rec.ID,
			Title: rec.Title,
			Level: rec.Level,
			Order: rec.Order,
		}
		seen = append(seen, node)

		if node.Level == 0 {
			roots = append(roots, node)
			continue
		}

		parent := lastAtLevel(seen[:len(seen)-1], node.Level-1)
		if parent == nil {
			logger.Warn("page has no ancestor at parent level, treating as root",
				slog.String("title", node.Title),
				slog.Int("level", node.Level))
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots
}

// lastAtLevel scans the processed nodes newest-first for one at level.
func lastAtLevel(nodes []*core.PageNode, level int) *core.PageNode {
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Level == level {
			return nodes[i]
		}
	}
	return nil
}

// Count returns the total number of nodes in the forest.
func Count(roots []*core.PageNode) int {
	n := 0
	for _, r := range roots {
		n += 1 + Count(r.Children)
	}
	return n
}
