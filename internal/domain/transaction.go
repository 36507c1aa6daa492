package domain

import (
	"math"
	"time"
)

// TransactionType determines how a transaction moves money between wallets.
type TransactionType string

const (
	TransactionIncome   TransactionType = "INCOME"
	TransactionExpense  TransactionType = "EXPENSE"
	TransactionTransfer TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	default:
		return false
	}
}

// Transaction is one ledger entry as fetched from storage.
// Income and Expense use AffectedWalletIDs; Transfer uses the source/destination pair.
// Amount may carry a sign in storage (negative expenses); use Magnitude when applying it.
type Transaction struct {
	ID       string          `json:"id"`
	Type     TransactionType `json:"type"`
	Amount   float64         `json:"amount"`
	Currency string          `json:"currency,omitempty"`

	// Date is nil for transactions without a known occurrence time.
	Date *time.Time `json:"date,omitempty"`

	AffectedWalletIDs   []string `json:"affected_wallet_ids,omitempty"`
	SourceWalletID      string   `json:"source_wallet_id,omitempty"`
	DestinationWalletID string   `json:"destination_wallet_id,omitempty"`

	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Magnitude returns the absolute amount of the transaction.
func (t Transaction) Magnitude() float64 {
	return math.Abs(t.Amount)
}

// IsTransfer reports whether the transaction is a transfer.
func (t Transaction) IsTransfer() bool {
	return t.Type == TransactionTransfer
}

// WalletIDs returns every wallet id the transaction refers to, in field order.
func (t Transaction) WalletIDs() []string {
	if t.IsTransfer() {
		ids := make([]string, 0, 2)
		if t.SourceWalletID != "" {
			ids = append(ids, t.SourceWalletID)
		}
		if t.DestinationWalletID != "" {
			ids = append(ids, t.DestinationWalletID)
		}
		return ids
	}
	return t.AffectedWalletIDs
}

// Touches reports whether the transaction refers to any wallet in ids.
// Both the affected set and the transfer pair are checked regardless of type.
func (t Transaction) Touches(ids map[string]bool) bool {
	for _, id := range t.AffectedWalletIDs {
		if ids[id] {
			return true
		}
	}
	if t.SourceWalletID != "" && ids[t.SourceWalletID] {
		return true
	}
	if t.DestinationWalletID != "" && ids[t.DestinationWalletID] {
		return true
	}
	return false
}

// OccurredBy reports whether the transaction is dated and occurred at or before cutoff.
func (t Transaction) OccurredBy(cutoff time.Time) bool {
	return t.Date != nil && !t.Date.After(cutoff)
}
