package ledger

import (
	"fmt"

	"github.com/dvloznov/wallet-ledger/internal/domain"
)

// IssueKind names a class of data-quality problem.
type IssueKind string

const (
	IssueDuplicateWallet      IssueKind = "duplicate_wallet"
	IssueInvalidWalletType    IssueKind = "invalid_wallet_type"
	IssueDuplicateTransaction IssueKind = "duplicate_transaction"
	IssueUnknownType          IssueKind = "unknown_transaction_type"
	IssueUndated              IssueKind = "undated_transaction"
	IssueUnknownWallet        IssueKind = "unknown_wallet"
	IssueMissingTransferSide  IssueKind = "missing_transfer_side"
	IssueNoAffectedWallets    IssueKind = "no_affected_wallets"
)

// Issue is one problem found by Validate. Replay tolerates all of them; they are
// reported so that silently skipped data does not go unnoticed.
type Issue struct {
	Kind          IssueKind `json:"kind"`
	TransactionID string    `json:"transaction_id,omitempty"`
	WalletID      string    `json:"wallet_id,omitempty"`
	Message       string    `json:"message"`
}

// Validate inspects wallets and transactions for input the replay engine skips or
// cannot order. Issues are returned in input order, wallets first.
func Validate(wallets []domain.Wallet, txs []domain.Transaction) []Issue {
	var issues []Issue

	known := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		if known[w.ID] {
			issues = append(issues, Issue{Kind: IssueDuplicateWallet, WalletID: w.ID,
				Message: fmt.Sprintf("wallet %q appears more than once", w.ID)})
		}
		known[w.ID] = true
		if !w.Type.Valid() {
			issues = append(issues, Issue{Kind: IssueInvalidWalletType, WalletID: w.ID,
				Message: fmt.Sprintf("wallet %q has type %q", w.ID, w.Type)})
		}
	}

	seen := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if seen[tx.ID] {
			issues = append(issues, Issue{Kind: IssueDuplicateTransaction, TransactionID: tx.ID,
				Message: fmt.Sprintf("transaction %q appears more than once", tx.ID)})
		}
		seen[tx.ID] = true

		if !tx.Type.Valid() {
			issues = append(issues, Issue{Kind: IssueUnknownType, TransactionID: tx.ID,
				Message: fmt.Sprintf("transaction %q has type %q and is ignored by replay", tx.ID, tx.Type)})
			continue
		}
		if tx.Date == nil {
			issues = append(issues, Issue{Kind: IssueUndated, TransactionID: tx.ID,
				Message: fmt.Sprintf("transaction %q has no date and is excluded from replay", tx.ID)})
		}

		if tx.IsTransfer() {
			if tx.SourceWalletID == "" || tx.DestinationWalletID == "" {
				issues = append(issues, Issue{Kind: IssueMissingTransferSide, TransactionID: tx.ID,
					Message: fmt.Sprintf("transfer %q is missing its source or destination", tx.ID)})
			}
		} else if len(tx.AffectedWalletIDs) == 0 {
			issues = append(issues, Issue{Kind: IssueNoAffectedWallets, TransactionID: tx.ID,
				Message: fmt.Sprintf("transaction %q affects no wallets", tx.ID)})
		}

		for _, id := range tx.WalletIDs() {
			if !known[id] {
				issues = append(issues, Issue{Kind: IssueUnknownWallet, TransactionID: tx.ID, WalletID: id,
					Message: fmt.Sprintf("transaction %q refers to unknown wallet %q", tx.ID, id)})
			}
		}
	}
	return issues
}
