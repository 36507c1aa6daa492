package notionsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syncTime = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return syncTime }

func balancesOf(ids ...string) []WalletBalance {
	out := make([]WalletBalance, 0, len(ids))
	for i, id := range ids {
		out = append(out, WalletBalance{
			Wallet:  domain.Wallet{ID: id, Name: id, Type: domain.WalletTypePhysical},
			Balance: float64(i+1) * 10,
		})
	}
	return out
}

func TestSyncWalletBalances_Upserts(t *testing.T) {
	mock := &MockNotionService{
		Pages: [][]notionapi.Page{
			{walletPage("p-cash", "cash"), walletPage("p-old", "closed")},
			{walletPage("p-blank", ""), walletPage("p-cash-dup", "cash")},
		},
	}

	res, err := SyncWalletBalances(context.Background(), mock, balancesOf("cash", "bank"), SyncOptions{DatabaseID: "db", Now: fixedNow})
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Created: 1, Updated: 1, Deleted: 3}, res)
	assert.ElementsMatch(t, []string{"p-old", "p-blank", "p-cash-dup"}, mock.Deleted)
	require.Contains(t, mock.Updated, "p-cash")
	assert.Equal(t, notionapi.NumberProperty{Number: 10}, mock.Updated["p-cash"][PropBalance])
	require.Len(t, mock.Created, 1)
	assert.Equal(t, "bank", extractTitle(mock.Created[0]))
	assert.Equal(t, []string{"", "cursor-1"}, mock.Cursors, "paginates with the returned cursor")
}

func TestSyncWalletBalances_DryRun(t *testing.T) {
	mock := &MockNotionService{
		Pages: [][]notionapi.Page{{walletPage("p-cash", "cash"), walletPage("p-old", "closed")}},
	}

	res, err := SyncWalletBalances(context.Background(), mock, balancesOf("cash", "bank"), SyncOptions{DatabaseID: "db", DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Created: 1, Updated: 1, Deleted: 1}, res)
	assert.Empty(t, mock.Created)
	assert.Empty(t, mock.Updated)
	assert.Empty(t, mock.Deleted)
}

func TestSyncWalletBalances_PageFailuresAreCounted(t *testing.T) {
	mock := &MockNotionService{
		Pages:     [][]notionapi.Page{{walletPage("p-cash", "cash")}},
		UpdateErr: map[string]error{"p-cash": errors.New("rate limited")},
		CreateErr: map[string]error{"bank": errors.New("validation")},
	}

	res, err := SyncWalletBalances(context.Background(), mock, balancesOf("cash", "bank", "gold"), SyncOptions{DatabaseID: "db", Now: fixedNow})
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Created: 1, Failed: 2}, res)
}

func TestSyncWalletBalances_QueryError(t *testing.T) {
	mock := &MockNotionService{QueryErr: errors.New("unauthorized")}

	_, err := SyncWalletBalances(context.Background(), mock, balancesOf("cash"), SyncOptions{DatabaseID: "db"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
	assert.Empty(t, mock.Created)
}
