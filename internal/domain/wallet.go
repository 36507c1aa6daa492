package domain

import (
	"time"
)

// WalletType classifies a wallet as real-world funds or a budgeting bucket.
type WalletType string

const (
	// WalletTypePhysical holds real funds (cash, bank, commodity).
	WalletTypePhysical WalletType = "PHYSICAL"
	// WalletTypeLogical is a budgeting category that subdivides physical funds.
	WalletTypeLogical WalletType = "LOGICAL"
)

// Valid reports whether t is one of the known wallet types.
func (t WalletType) Valid() bool {
	return t == WalletTypePhysical || t == WalletTypeLogical
}

// PhysicalForm is the kind of asset a physical wallet holds.
type PhysicalForm string

const (
	FormFiatCurrency   PhysicalForm = "FIAT_CURRENCY"
	FormPreciousMetal  PhysicalForm = "PRECIOUS_METAL"
	FormCryptocurrency PhysicalForm = "CRYPTOCURRENCY"
	FormOther          PhysicalForm = "OTHER"
)

// Wallet is a user wallet as fetched from storage.
// Balance is the authoritative current value; replay never mutates it.
type Wallet struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Currency string       `json:"currency"`
	Type     WalletType   `json:"type"`
	Form     PhysicalForm `json:"form,omitempty"`

	Balance        float64 `json:"balance"`
	InitialBalance float64 `json:"initial_balance"`

	// CreatedAt is nil when the wallet is treated as always having existed.
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// IsPhysical reports whether the wallet holds real funds.
func (w Wallet) IsPhysical() bool {
	return w.Type == WalletTypePhysical
}

// IsLogical reports whether the wallet is a budgeting bucket.
func (w Wallet) IsLogical() bool {
	return w.Type == WalletTypeLogical
}

// ExistsAt reports whether the wallet had been created by cutoff.
func (w Wallet) ExistsAt(cutoff time.Time) bool {
	return w.CreatedAt == nil || !w.CreatedAt.After(cutoff)
}

// EffectiveForm returns the wallet's physical form, defaulting to fiat currency.
func (w Wallet) EffectiveForm() PhysicalForm {
	if w.Form == "" {
		return FormFiatCurrency
	}
	return w.Form
}

// IndexWallets builds a lookup of wallet id to wallet.
func IndexWallets(wallets []Wallet) map[string]Wallet {
	byID := make(map[string]Wallet, len(wallets))
	for _, w := range wallets {
		byID[w.ID] = w
	}
	return byID
}
