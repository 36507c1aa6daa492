package notionsync

import (
	"testing"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletToNotionProperties_Physical(t *testing.T) {
	asOf := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	wb := WalletBalance{
		Wallet: domain.Wallet{
			ID: "gold", Name: "Gold bar", Currency: "XAU",
			Type: domain.WalletTypePhysical, Form: domain.FormPreciousMetal, Balance: 12.345,
		},
		Balance: 10.005,
		AsOf:    &asOf,
	}

	props := WalletToNotionProperties(wb, syncTime)

	assert.Equal(t, "gold", extractTitle(props))
	assert.Equal(t, notionapi.NumberProperty{Number: 10.01}, props[PropBalance])
	assert.Equal(t, notionapi.NumberProperty{Number: 12.35}, props[PropStored])
	assert.Equal(t, notionapi.SelectProperty{Select: notionapi.Option{Name: "PHYSICAL"}}, props[PropType])
	assert.Equal(t, notionapi.SelectProperty{Select: notionapi.Option{Name: "PRECIOUS_METAL"}}, props[PropForm])
	assert.Equal(t, notionapi.SelectProperty{Select: notionapi.Option{Name: "XAU"}}, props[PropCurrency])

	date, ok := props[PropAsOf].(notionapi.DateProperty)
	require.True(t, ok)
	assert.True(t, time.Time(*date.Date.Start).Equal(asOf))
}

func TestWalletToNotionProperties_LogicalCurrent(t *testing.T) {
	wb := WalletBalance{Wallet: domain.Wallet{ID: "food", Type: domain.WalletTypeLogical}, Balance: -4}

	props := WalletToNotionProperties(wb, syncTime)

	assert.NotContains(t, props, PropForm)
	assert.NotContains(t, props, PropAsOf)
	assert.NotContains(t, props, PropWalletName)
	assert.NotContains(t, props, PropCurrency)
	assert.Equal(t, notionapi.NumberProperty{Number: -4}, props[PropBalance])
}

func TestWalletToNotionProperties_EmptyFormIsFiat(t *testing.T) {
	wb := WalletBalance{Wallet: domain.Wallet{ID: "cash", Type: domain.WalletTypePhysical}}

	props := WalletToNotionProperties(wb, syncTime)

	assert.Equal(t, notionapi.SelectProperty{Select: notionapi.Option{Name: "FIAT_CURRENCY"}}, props[PropForm])
}

func TestBalancesFor(t *testing.T) {
	created := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	wallets := []domain.Wallet{
		{ID: "cash", Type: domain.WalletTypePhysical, Balance: 999},
		{ID: "food", Type: domain.WalletTypeLogical},
		{ID: "late", Type: domain.WalletTypePhysical, CreatedAt: &created},
	}
	d := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{ID: "T1", Type: domain.TransactionIncome, Amount: 50, Date: &d, AffectedWalletIDs: []string{"cash", "food"}},
	}
	cutoff := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	got := BalancesFor(wallets, txs, &cutoff)

	require.Len(t, got, 2, "wallets created after the cutoff are left out")
	assert.Equal(t, "cash", got[0].Wallet.ID)
	assert.InDelta(t, 50, got[0].Balance, 1e-9)
	assert.Equal(t, "food", got[1].Wallet.ID)
	assert.Equal(t, &cutoff, got[1].AsOf)

	current := BalancesFor(wallets, txs, nil)
	require.Len(t, current, 3)
	assert.InDelta(t, 999, current[0].Balance, 1e-9)
}

func TestExtractWalletID(t *testing.T) {
	assert.Equal(t, "cash", extractWalletID(walletPage("p1", "cash")))
	assert.Equal(t, "", extractWalletID(walletPage("p2", "")))

	byValue := notionapi.Page{Properties: notionapi.Properties{
		PropWalletID: notionapi.TitleProperty{Title: richText("bank")},
	}}
	assert.Equal(t, "bank", extractWalletID(byValue))
}
