package ledger

import (
	"math"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/wallet-ledger/internal/domain"
)

// DefaultTolerance absorbs floating-point drift when comparing physical and logical totals.
const DefaultTolerance = 0.01

// TransactionWithBalances annotates a transaction with the cumulative physical and
// logical totals after it was applied.
type TransactionWithBalances struct {
	Transaction     domain.Transaction `json:"transaction"`
	PhysicalBalance float64            `json:"physical_balance"`
	LogicalBalance  float64            `json:"logical_balance"`
	Difference      float64            `json:"difference"`
}

// Analyzer walks a transaction log and checks that physical and logical totals agree.
type Analyzer struct {
	// Tolerance is the largest absolute difference still treated as balanced.
	Tolerance float64
}

// NewAnalyzer returns an Analyzer with the given tolerance.
// A non-positive tolerance falls back to DefaultTolerance.
func NewAnalyzer(tolerance float64) Analyzer {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return Analyzer{Tolerance: tolerance}
}

// FindFirstDiscrepancyTransaction locates the transaction where the physical/logical
// invariant first broke, using DefaultTolerance.
func FindFirstDiscrepancyTransaction(txs []domain.Transaction, walletsByID map[string]domain.Wallet) (string, bool) {
	return NewAnalyzer(DefaultTolerance).FindFirstDiscrepancyTransaction(txs, walletsByID)
}

// CalculateRunningBalances annotates txs with running totals, using DefaultTolerance.
func CalculateRunningBalances(txs []domain.Transaction, walletsByID map[string]domain.Wallet) []TransactionWithBalances {
	return NewAnalyzer(DefaultTolerance).CalculateRunningBalances(txs, walletsByID)
}

// CalculateRunningBalances replays the dated transactions in chronological order from zero
// and records the physical and logical totals after each one.
func (a Analyzer) CalculateRunningBalances(txs []domain.Transaction, walletsByID map[string]domain.Wallet) []TransactionWithBalances {
	ordered := SortChronologically(txs)
	rows := make([]TransactionWithBalances, 0, len(ordered))

	var physical, logical float64
	for _, tx := range ordered {
		dp, dl := effect(tx, walletsByID)
		physical += dp
		logical += dl
		rows = append(rows, TransactionWithBalances{
			Transaction:     tx,
			PhysicalBalance: physical,
			LogicalBalance:  logical,
			Difference:      physical - logical,
		})
	}
	return rows
}

// FindFirstDiscrepancyTransaction returns the id of the transaction after which the ledger
// stopped balancing, and false when the invariant holds throughout.
//
// The invariant is checked when each UTC calendar day closes, so a physical entry and its logical
// mirror booked as separate transactions on the same day do not trip it. When a day closes
// unbalanced, the reported transaction is the one right after the last balanced point.
func (a Analyzer) FindFirstDiscrepancyTransaction(txs []domain.Transaction, walletsByID map[string]domain.Wallet) (string, bool) {
	rows := a.CalculateRunningBalances(txs, walletsByID)

	origin := -1
	for i, row := range rows {
		if a.Balanced(row.Difference) {
			origin = -1
		} else if origin < 0 {
			origin = i
		}

		if origin >= 0 && closesDay(rows, i) {
			return rows[origin].Transaction.ID, true
		}
	}
	return "", false
}

// Balanced reports whether diff is within tolerance.
func (a Analyzer) Balanced(diff float64) bool {
	return math.Abs(diff) <= a.Tolerance
}

// closesDay reports whether row i is the last of its UTC calendar day.
func closesDay(rows []TransactionWithBalances, i int) bool {
	if i == len(rows)-1 {
		return true
	}
	return settlementDay(rows[i].Transaction) != settlementDay(rows[i+1].Transaction)
}

func settlementDay(tx domain.Transaction) civil.Date {
	return civil.DateOf(tx.Date.UTC())
}

// effect returns the change tx makes to the physical and logical totals.
// Wallet ids missing from walletsByID are ignored.
func effect(tx domain.Transaction, walletsByID map[string]domain.Wallet) (physical, logical float64) {
	route := func(id string, delta float64) {
		if id == "" {
			return
		}
		w, ok := walletsByID[id]
		if !ok {
			return
		}
		switch w.Type {
		case domain.WalletTypePhysical:
			physical += delta
		case domain.WalletTypeLogical:
			logical += delta
		}
	}

	amount := tx.Magnitude()
	switch tx.Type {
	case domain.TransactionIncome:
		for _, id := range tx.AffectedWalletIDs {
			route(id, amount)
		}
	case domain.TransactionExpense:
		for _, id := range tx.AffectedWalletIDs {
			route(id, -amount)
		}
	case domain.TransactionTransfer:
		route(tx.SourceWalletID, -amount)
		route(tx.DestinationWalletID, amount)
	}
	return physical, logical
}
