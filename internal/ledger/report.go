package ledger

import (
	"time"

	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// ReportOptions controls BuildReport.
type ReportOptions struct {
	// Cutoff is nil for current stored balances.
	Cutoff *time.Time
	Filter domain.WalletFilter
	// Tolerance <= 0 uses DefaultTolerance.
	Tolerance float64
}

// Report is the full reconciliation view of a ledger at one point in time.
type Report struct {
	Cutoff *time.Time `json:"cutoff,omitempty"`
	Filter string     `json:"filter"`

	PhysicalBalances map[string]float64 `json:"physical_balances"`
	LogicalBalances  map[string]float64 `json:"logical_balances"`

	Composition    map[domain.PhysicalForm]float64 `json:"composition"`
	PhysicalByName map[string]float64              `json:"physical_by_name"`
	LogicalByName  map[string]float64              `json:"logical_by_name"`

	TotalPhysical float64 `json:"total_physical"`
	TotalLogical  float64 `json:"total_logical"`

	Discrepancy              bool   `json:"discrepancy"`
	DiscrepancyTransactionID string `json:"discrepancy_transaction_id,omitempty"`

	RunningBalances []TransactionWithBalances `json:"running_balances"`
}

// CompositionByForm sums physical balances by the wallet's physical form.
// Balances for wallets that are unknown or logical are ignored.
func CompositionByForm(wallets []domain.Wallet, balances map[string]float64) map[domain.PhysicalForm]float64 {
	byID := domain.IndexWallets(wallets)
	out := make(map[domain.PhysicalForm]float64)
	for id, v := range balances {
		w, ok := byID[id]
		if !ok || !w.IsPhysical() {
			continue
		}
		out[w.EffectiveForm()] += v
	}
	return out
}

// BalancesByWalletName sums balances by wallet display name for wallets of type t.
func BalancesByWalletName(wallets []domain.Wallet, balances map[string]float64, t domain.WalletType) map[string]float64 {
	byID := domain.IndexWallets(wallets)
	out := make(map[string]float64)
	for id, v := range balances {
		w, ok := byID[id]
		if !ok || w.Type != t {
			continue
		}
		out[w.Name] += v
	}
	return out
}

// BuildReport replays the ledger and assembles every reconciliation view in one pass.
// The discrepancy check always covers the whole ledger up to the cutoff: the physical/logical
// invariant is global, so the wallet filter only narrows the balance views.
func BuildReport(wallets []domain.Wallet, txs []domain.Transaction, opts ReportOptions) *Report {
	analyzer := NewAnalyzer(opts.Tolerance)

	physicalRaw := ReconstructBalances(walletsOfType(wallets, domain.WalletTypePhysical), txs, opts.Cutoff, opts.Filter)
	logicalRaw := ReconstructBalances(walletsOfType(wallets, domain.WalletTypeLogical), txs, opts.Cutoff, opts.Filter)

	physical := keep(physicalRaw, func(v float64) bool { return v > 0 })
	logical := keep(logicalRaw, func(v float64) bool { return v != 0 })

	window := TransactionsUpTo(txs, opts.Cutoff)
	byID := domain.IndexWallets(wallets)

	r := &Report{
		Cutoff:           opts.Cutoff,
		Filter:           opts.Filter.String(),
		PhysicalBalances: physical,
		LogicalBalances:  logical,
		Composition:      CompositionByForm(wallets, physical),
		PhysicalByName:   BalancesByWalletName(wallets, physical, domain.WalletTypePhysical),
		LogicalByName:    BalancesByWalletName(wallets, logical, domain.WalletTypeLogical),
		TotalPhysical:    sum(physicalRaw),
		TotalLogical:     sum(logicalRaw),
		RunningBalances:  analyzer.CalculateRunningBalances(window, byID),
	}
	r.DiscrepancyTransactionID, r.Discrepancy = analyzer.FindFirstDiscrepancyTransaction(window, byID)
	return r
}

func sum(balances map[string]float64) float64 {
	total := decimal.Zero
	for _, v := range balances {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

// RoundAmount rounds v to two decimal places, half away from zero.
func RoundAmount(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatAmount renders v with exactly two decimal places.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
