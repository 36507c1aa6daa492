package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// PageSize is the number of pages requested per database query.
const PageSize = 100

// NotionClient implements NotionService with jomei/notionapi.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a new NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

func (n *NotionClient) CreateBalancePage(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error) {
	page, err := n.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return "", fmt.Errorf("CreateBalancePage: %w", err)
	}
	return string(page.ID), nil
}

func (n *NotionClient) UpdateBalancePage(ctx context.Context, pageID string, properties notionapi.Properties) error {
	_, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: properties,
	})
	if err != nil {
		return fmt.Errorf("UpdateBalancePage: page %s: %w", pageID, err)
	}
	return nil
}

func (n *NotionClient) ListBalancePages(ctx context.Context, databaseID, cursor string) (*BalancePages, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), balancePagesQuery(cursor))
	if err != nil {
		return nil, fmt.Errorf("ListBalancePages: %w", err)
	}
	return toBalancePages(resp), nil
}

func (n *NotionClient) ArchivePage(ctx context.Context, pageID string) error {
	_, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Archived: true,
	})
	if err != nil {
		return fmt.Errorf("ArchivePage: page %s: %w", pageID, err)
	}
	return nil
}

// balancePagesQuery orders by creation time so the oldest page for a wallet is seen first.
func balancePagesQuery(cursor string) *notionapi.DatabaseQueryRequest {
	req := &notionapi.DatabaseQueryRequest{
		PageSize: PageSize,
		Sorts: []notionapi.SortObject{
			{Timestamp: notionapi.TimestampCreated, Direction: notionapi.SortOrderASC},
		},
	}
	if cursor != "" {
		req.StartCursor = notionapi.Cursor(cursor)
	}
	return req
}

func toBalancePages(resp *notionapi.DatabaseQueryResponse) *BalancePages {
	out := &BalancePages{Pages: resp.Results}
	if resp.HasMore {
		out.NextCursor = string(resp.NextCursor)
	}
	return out
}

var _ NotionService = (*NotionClient)(nil)
