// Package ledger replays wallet transactions to rebuild balances, checks the
// physical/logical invariant and assembles reconciliation reports.
// Everything in this package is pure: inputs are never modified and no I/O is done.
package ledger

import (
	"github.com/dvloznov/wallet-ledger/internal/domain"
)

// FilterWallets applies filter to wallets. AllWallets returns the input unchanged.
// A SpecificWallet that matches nothing yields an empty slice.
func FilterWallets(wallets []domain.Wallet, filter domain.WalletFilter) []domain.Wallet {
	if filter.IsAll() {
		return wallets
	}
	out := []domain.Wallet{}
	for _, w := range wallets {
		if w.ID == filter.WalletID() {
			out = append(out, w)
		}
	}
	return out
}

// FilterTransactions keeps transactions that touch the filtered wallet,
// through either the affected set or the transfer pair.
func FilterTransactions(txs []domain.Transaction, filter domain.WalletFilter) []domain.Transaction {
	if filter.IsAll() {
		return txs
	}
	ids := map[string]bool{filter.WalletID(): true}
	out := []domain.Transaction{}
	for _, tx := range txs {
		if tx.Touches(ids) {
			out = append(out, tx)
		}
	}
	return out
}

// walletsOfType returns the wallets with the given type, preserving order.
func walletsOfType(wallets []domain.Wallet, t domain.WalletType) []domain.Wallet {
	out := make([]domain.Wallet, 0, len(wallets))
	for _, w := range wallets {
		if w.Type == t {
			out = append(out, w)
		}
	}
	return out
}

func idSet(wallets []domain.Wallet) map[string]bool {
	ids := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		ids[w.ID] = true
	}
	return ids
}
