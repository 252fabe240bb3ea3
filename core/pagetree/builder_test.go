package pagetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/notemark/core"
)

func TestBuildNestsChildrenUnderPrecedingParent(t *testing.T) {
	records := []core.PageRecord{
		{ID: "1", Title: "one", Level: 0, Order: 0},
		{ID: "2", Title: "two", Level: 1, Order: 1},
		{ID: "3", Title: "three", Level: 1, Order: 2},
		{ID: "4", Title: "four", Level: 0, Order: 3},
	}

	roots := Build(records, nil)
	require.Len(t, roots, 2)

	assert.Equal(t, "1", roots[0].ID)
	assert.Equal(t, "4", roots[1].ID)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "2", roots[0].Children[0].ID)
	assert.Equal(t, "3", roots[0].Children[1].ID)
	assert.Empty(t, roots[1].Children)
}

func TestBuildSortsByOrderBeforeLevel(t *testing.T) {
	// Listing arrives out of order; the sort key decides parentage.
	records := []core.PageRecord{
		{ID: "c", Title: "child", Level: 1, Order: 5},
		{ID: "r2", Title: "root2", Level: 0, Order: 9},
		{ID: "r1", Title: "root1", Level: 0, Order: 1},
	}

	roots := Build(records, nil)
	require.Len(t, roots, 2)
	assert.Equal(t, "r1", roots[0].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "c", roots[0].Children[0].ID)
}

func TestBuildDemotesOrphanToRoot(t *testing.T) {
	records := []core.PageRecord{
		{ID: "1", Title: "lost", Level: 2, Order: 0},
	}

	roots := Build(records, nil)
	require.Len(t, roots, 1)
	assert.Equal(t, "1", roots[0].ID)
	assert.Equal(t, 2, roots[0].Level)
}

func TestBuildDeepNesting(t *testing.T) {
	records := []core.PageRecord{
		{ID: "a", Level: 0, Order: 0},
		{ID: "b", Level: 1, Order: 1},
		{ID: "c", Level: 2, Order: 2},
		{ID: "d", Level: 1, Order: 3},
	}

	roots := Build(records, nil)
	require.Len(t, roots, 1)
	a := roots[0]
	require.Len(t, a.Children, 2)
	assert.Equal(t, "b", a.Children[0].ID)
	assert.Equal(t, "d", a.Children[1].ID)
	require.Len(t, a.Children[0].Children, 1)
	assert.Equal(t, "c", a.Children[0].Children[0].ID)
}

func TestBuildEmptyInput(t *testing.T) {
	assert.Empty(t, Build(nil, nil))
}

func TestCount(t *testing.T) {
	records := []core.PageRecord{
		{ID: "a", Level: 0, Order: 0},
		{ID: "b", Level: 1, Order: 1},
		{ID: "c", Level: 0, Order: 2},
	}
	assert.Equal(t, 3, Count(Build(records, nil)))
}
