package ledger

import (
	"time"

	"github.com/dvloznov/wallet-ledger/internal/domain"
)

func day(n int) *time.Time {
	t := time.Date(2024, time.January, n, 12, 0, 0, 0, time.UTC)
	return &t
}

func at(n, hour int) *time.Time {
	t := time.Date(2024, time.January, n, hour, 0, 0, 0, time.UTC)
	return &t
}

func physical(id string, initial, balance float64) domain.Wallet {
	return domain.Wallet{ID: id, Name: id, Currency: "USD", Type: domain.WalletTypePhysical,
		InitialBalance: initial, Balance: balance}
}

func logical(id string, initial, balance float64) domain.Wallet {
	return domain.Wallet{ID: id, Name: id, Currency: "USD", Type: domain.WalletTypeLogical,
		InitialBalance: initial, Balance: balance}
}

func income(id string, amount float64, date *time.Time, wallets ...string) domain.Transaction {
	return domain.Transaction{ID: id, Type: domain.TransactionIncome, Amount: amount, Date: date, AffectedWalletIDs: wallets}
}

func expense(id string, amount float64, date *time.Time, wallets ...string) domain.Transaction {
	return domain.Transaction{ID: id, Type: domain.TransactionExpense, Amount: amount, Date: date, AffectedWalletIDs: wallets}
}

func transfer(id string, amount float64, date *time.Time, from, to string) domain.Transaction {
	return domain.Transaction{ID: id, Type: domain.TransactionTransfer, Amount: amount, Date: date,
		SourceWalletID: from, DestinationWalletID: to}
}
