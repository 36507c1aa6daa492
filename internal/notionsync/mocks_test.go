package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// MockNotionService records calls and serves pages from an in-memory database.
type MockNotionService struct {
	Pages [][]notionapi.Page

	QueryErr  error
	CreateErr map[string]error
	UpdateErr map[string]error

	Created []notionapi.Properties
	Updated map[string]notionapi.Properties
	Deleted []string
	Cursors []string
}

func (m *MockNotionService) CreateBalancePage(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error) {
	id := extractTitle(properties)
	if err := m.CreateErr[id]; err != nil {
		return "", err
	}
	m.Created = append(m.Created, properties)
	return "page-" + id, nil
}

func (m *MockNotionService) UpdateBalancePage(ctx context.Context, pageID string, properties notionapi.Properties) error {
	if err := m.UpdateErr[pageID]; err != nil {
		return err
	}
	if m.Updated == nil {
		m.Updated = map[string]notionapi.Properties{}
	}
	m.Updated[pageID] = properties
	return nil
}

func (m *MockNotionService) ListBalancePages(ctx context.Context, databaseID, cursor string) (*BalancePages, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	m.Cursors = append(m.Cursors, cursor)

	n := len(m.Cursors) - 1
	if n >= len(m.Pages) {
		return &BalancePages{}, nil
	}
	batch := &BalancePages{Pages: m.Pages[n]}
	if n+1 < len(m.Pages) {
		batch.NextCursor = fmt.Sprintf("cursor-%d", n+1)
	}
	return batch, nil
}

func (m *MockNotionService) ArchivePage(ctx context.Context, pageID string) error {
	m.Deleted = append(m.Deleted, pageID)
	return nil
}

func extractTitle(props notionapi.Properties) string {
	if t, ok := props[PropWalletID].(notionapi.TitleProperty); ok {
		return plainText(t.Title)
	}
	return ""
}

func walletPage(pageID, walletID string) notionapi.Page {
	props := notionapi.Properties{}
	if walletID != "" {
		props[PropWalletID] = &notionapi.TitleProperty{
			Title: []notionapi.RichText{{PlainText: walletID}},
		}
	}
	return notionapi.Page{ID: notionapi.ObjectID(pageID), Properties: props}
}
