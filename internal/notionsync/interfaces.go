package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// BalancePages is one batch of pages read from the balances database.
type BalancePages struct {
	Pages []notionapi.Page
	// NextCursor is empty on the last batch.
	NextCursor string
}

// NotionService is the subset of the Notion API the balance sync needs.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreateBalancePage adds a page to the database and returns its ID.
	CreateBalancePage(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error)

	// UpdateBalancePage overwrites the given properties of an existing page.
	UpdateBalancePage(ctx context.Context, pageID string, properties notionapi.Properties) error

	// ListBalancePages returns the batch of pages starting at cursor, oldest first.
	ListBalancePages(ctx context.Context, databaseID, cursor string) (*BalancePages, error)

	// ArchivePage archives a page.
	ArchivePage(ctx context.Context, pageID string) error
}
