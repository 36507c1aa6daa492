package domain

import "fmt"

type filterKind int

const (
	filterAll filterKind = iota
	filterSpecific
)

// WalletFilter selects either every wallet or a single wallet by id.
// The zero value selects all wallets.
type WalletFilter struct {
	kind filterKind
	id   string
	name string
}

// AllWallets returns the identity filter.
func AllWallets() WalletFilter {
	return WalletFilter{kind: filterAll}
}

// SpecificWallet returns a filter for one wallet. name is kept for display only.
func SpecificWallet(id, name string) WalletFilter {
	return WalletFilter{kind: filterSpecific, id: id, name: name}
}

// IsAll reports whether the filter selects every wallet.
func (f WalletFilter) IsAll() bool {
	return f.kind == filterAll
}

// WalletID returns the selected wallet id, or "" for AllWallets.
func (f WalletFilter) WalletID() string {
	return f.id
}

// WalletName returns the display name given to SpecificWallet.
func (f WalletFilter) WalletName() string {
	return f.name
}

// Matches reports whether walletID passes the filter.
func (f WalletFilter) Matches(walletID string) bool {
	return f.IsAll() || f.id == walletID
}

func (f WalletFilter) String() string {
	if f.IsAll() {
		return "all wallets"
	}
	if f.name != "" {
		return fmt.Sprintf("wallet %s (%s)", f.id, f.name)
	}
	return fmt.Sprintf("wallet %s", f.id)
}

// FilterFor resolves a wallet id into a filter, picking up the display name when known.
// An empty id selects all wallets.
func FilterFor(walletID string, wallets []Wallet) WalletFilter {
	if walletID == "" {
		return AllWallets()
	}
	for _, w := range wallets {
		if w.ID == walletID {
			return SpecificWallet(w.ID, w.Name)
		}
	}
	return SpecificWallet(walletID, "")
}
