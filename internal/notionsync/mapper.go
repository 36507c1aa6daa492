package notionsync

import (
	"time"

	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/dvloznov/wallet-ledger/internal/ledger"
	"github.com/jomei/notionapi"
)

// Property names of the wallet balances database.
const (
	PropWalletID   = "Wallet ID"
	PropWalletName = "Wallet Name"
	PropType       = "Type"
	PropForm       = "Form"
	PropCurrency   = "Currency"
	PropBalance    = "Balance"
	PropStored     = "Stored Balance"
	PropAsOf       = "As Of"
	PropSyncedAt   = "Synced At"
)

// WalletBalance is one row of the Notion balances database.
type WalletBalance struct {
	Wallet  domain.Wallet
	Balance float64
	// AsOf is nil when Balance is the current stored balance.
	AsOf *time.Time
}

// WalletToNotionProperties converts a wallet balance to Notion properties.
func WalletToNotionProperties(wb WalletBalance, syncedAt time.Time) notionapi.Properties {
	w := wb.Wallet
	props := notionapi.Properties{
		PropWalletID: notionapi.TitleProperty{
			Title: richText(w.ID),
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(w.Type)},
		},
		PropBalance: notionapi.NumberProperty{
			Number: ledger.RoundAmount(wb.Balance),
		},
		PropStored: notionapi.NumberProperty{
			Number: ledger.RoundAmount(w.Balance),
		},
		PropSyncedAt: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: dateOf(syncedAt)},
		},
	}

	if w.Name != "" {
		props[PropWalletName] = notionapi.RichTextProperty{
			RichText: richText(w.Name),
		}
	}

	// Only physical wallets carry a form
	if w.IsPhysical() {
		props[PropForm] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(w.EffectiveForm())},
		}
	}

	if w.Currency != "" {
		props[PropCurrency] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: w.Currency},
		}
	}

	if wb.AsOf != nil {
		props[PropAsOf] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: dateOf(*wb.AsOf)},
		}
	}

	return props
}

// BalancesFor pairs every wallet alive at cutoff with its reconstructed balance.
// The result follows the order of wallets.
func BalancesFor(wallets []domain.Wallet, txs []domain.Transaction, cutoff *time.Time) []WalletBalance {
	balances := ledger.ReconstructBalances(wallets, txs, cutoff, domain.AllWallets())

	out := make([]WalletBalance, 0, len(balances))
	for _, w := range wallets {
		b, ok := balances[w.ID]
		if !ok {
			continue
		}
		out = append(out, WalletBalance{Wallet: w, Balance: b, AsOf: cutoff})
	}
	return out
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

func dateOf(t time.Time) *notionapi.Date {
	d := notionapi.Date(t.UTC())
	return &d
}

// extractWalletID extracts the wallet ID from a Notion page's title property.
// Returns empty string if not found.
func extractWalletID(page notionapi.Page) string {
	prop, ok := page.Properties[PropWalletID]
	if !ok {
		return ""
	}
	switch title := prop.(type) {
	case *notionapi.TitleProperty:
		return plainText(title.Title)
	case notionapi.TitleProperty:
		return plainText(title.Title)
	}
	return ""
}

func plainText(rt []notionapi.RichText) string {
	if len(rt) == 0 {
		return ""
	}
	if rt[0].PlainText != "" {
		return rt[0].PlainText
	}
	if rt[0].Text != nil {
		return rt[0].Text.Content
	}
	return ""
}
