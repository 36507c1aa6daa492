package notionsync

import (
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalancePagesQuery(t *testing.T) {
	first := balancePagesQuery("")
	assert.Equal(t, PageSize, first.PageSize)
	assert.Empty(t, first.StartCursor)
	require.Len(t, first.Sorts, 1)
	assert.Equal(t, notionapi.TimestampCreated, first.Sorts[0].Timestamp)
	assert.Equal(t, notionapi.SortOrderASC, first.Sorts[0].Direction)

	next := balancePagesQuery("abc")
	assert.Equal(t, notionapi.Cursor("abc"), next.StartCursor)
}

func TestToBalancePages(t *testing.T) {
	pages := []notionapi.Page{walletPage("p1", "cash")}

	more := toBalancePages(&notionapi.DatabaseQueryResponse{Results: pages, HasMore: true, NextCursor: "c2"})
	assert.Equal(t, "c2", more.NextCursor)
	assert.Len(t, more.Pages, 1)

	// A cursor without has_more is not followed.
	last := toBalancePages(&notionapi.DatabaseQueryResponse{Results: pages, NextCursor: "stale"})
	assert.Empty(t, last.NextCursor)
}
