package ledger

import (
	"sort"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/domain"
)

// SortChronologically returns the dated transactions ordered by occurrence date.
// Transactions sharing a timestamp are ordered by ID so replay is deterministic.
// Undated transactions are dropped.
func SortChronologically(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date != nil {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := *out[i].Date, *out[j].Date
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// TransactionsUpTo returns the dated transactions that occurred at or before cutoff,
// in chronological order. A nil cutoff keeps every dated transaction.
func TransactionsUpTo(txs []domain.Transaction, cutoff *time.Time) []domain.Transaction {
	sorted := SortChronologically(txs)
	if cutoff == nil {
		return sorted
	}
	out := make([]domain.Transaction, 0, len(sorted))
	for _, tx := range sorted {
		if tx.OccurredBy(*cutoff) {
			out = append(out, tx)
		}
	}
	return out
}

// ReconstructBalances rebuilds the balance of every wallet selected by filter as of cutoff.
//
// With a nil cutoff the wallets' stored balances are returned as-is. Otherwise each wallet
// that existed at the cutoff starts from its initial balance and every dated transaction up
// to the cutoff that touches the working set is replayed in order. Wallets created after the
// cutoff are left out of the result. A transfer with only one side in the working set is
// applied to that side only.
func ReconstructBalances(wallets []domain.Wallet, txs []domain.Transaction, cutoff *time.Time, filter domain.WalletFilter) map[string]float64 {
	working := FilterWallets(wallets, filter)

	if cutoff == nil {
		balances := make(map[string]float64, len(working))
		for _, w := range working {
			balances[w.ID] = w.Balance
		}
		return balances
	}

	ids := idSet(working)

	var selected []domain.Transaction
	for _, tx := range txs {
		if tx.OccurredBy(*cutoff) && tx.Touches(ids) {
			selected = append(selected, tx)
		}
	}
	selected = SortChronologically(selected)

	balances := make(map[string]float64, len(working))
	live := make(map[string]bool, len(working))
	for _, w := range working {
		if w.ExistsAt(*cutoff) {
			balances[w.ID] = w.InitialBalance
			live[w.ID] = true
		}
	}

	for _, tx := range selected {
		applyTransaction(balances, live, tx)
	}
	return balances
}

// applyTransaction adds the effect of tx to balances for wallets in ids.
func applyTransaction(balances map[string]float64, ids map[string]bool, tx domain.Transaction) {
	amount := tx.Magnitude()
	switch tx.Type {
	case domain.TransactionIncome:
		for _, id := range tx.AffectedWalletIDs {
			if ids[id] {
				balances[id] += amount
			}
		}
	case domain.TransactionExpense:
		for _, id := range tx.AffectedWalletIDs {
			if ids[id] {
				balances[id] -= amount
			}
		}
	case domain.TransactionTransfer:
		if tx.SourceWalletID != "" && ids[tx.SourceWalletID] {
			balances[tx.SourceWalletID] -= amount
		}
		if tx.DestinationWalletID != "" && ids[tx.DestinationWalletID] {
			balances[tx.DestinationWalletID] += amount
		}
	}
}

// ReconstructPhysicalBalances replays physical wallets only and keeps positive balances.
func ReconstructPhysicalBalances(wallets []domain.Wallet, txs []domain.Transaction, cutoff *time.Time, filter domain.WalletFilter) map[string]float64 {
	physical := walletsOfType(wallets, domain.WalletTypePhysical)
	return keep(ReconstructBalances(physical, txs, cutoff, filter), func(v float64) bool { return v > 0 })
}

// ReconstructLogicalBalances replays logical wallets only and keeps every non-zero balance.
// Negative balances are retained since a budget category can be overspent.
func ReconstructLogicalBalances(wallets []domain.Wallet, txs []domain.Transaction, cutoff *time.Time, filter domain.WalletFilter) map[string]float64 {
	logical := walletsOfType(wallets, domain.WalletTypeLogical)
	return keep(ReconstructBalances(logical, txs, cutoff, filter), func(v float64) bool { return v != 0 })
}

func keep(balances map[string]float64, pred func(float64) bool) map[string]float64 {
	out := make(map[string]float64, len(balances))
	for id, v := range balances {
		if pred(v) {
			out[id] = v
		}
	}
	return out
}
