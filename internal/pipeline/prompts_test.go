package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/dvloznov/wallet-ledger/internal/ledger"
)

func TestBuildExplanationPrompt(t *testing.T) {
	day := func(n int) *time.Time {
		d := time.Date(2024, 1, n, 9, 0, 0, 0, time.UTC)
		return &d
	}
	wallets := []domain.Wallet{
		{ID: "cash", Type: domain.WalletTypePhysical},
		{ID: "food", Type: domain.WalletTypeLogical},
	}
	txs := []domain.Transaction{
		{ID: "t1", Type: domain.TransactionIncome, Amount: 100, Date: day(1), AffectedWalletIDs: []string{"cash", "food"}},
		{ID: "t2", Type: domain.TransactionExpense, Amount: -42.5, Date: day(2), AffectedWalletIDs: []string{"cash"}},
	}
	report := ledger.BuildReport(wallets, txs, ledger.ReportOptions{Cutoff: day(3)})

	prompt := buildExplanationPrompt(report)

	for _, want := range []string{
		`transaction "t2"`,
		"as of 2024-01-03 09:00 (all wallets)",
		"total physical: 57.50",
		"total logical: 100.00",
		"t2 | 2024-01-02 | EXPENSE | 42.50 | cash | 57.50 | 100.00 | -42.50",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestNeighbourhood(t *testing.T) {
	var rows []ledger.TransactionWithBalances
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		rows = append(rows, ledger.TransactionWithBalances{Transaction: domain.Transaction{ID: id}})
	}

	tests := []struct {
		id   string
		n    int
		want string
	}{
		{"c", 1, "bcd"},
		{"a", 2, "abc"},
		{"e", 10, "abcde"},
		{"zz", 1, ""},
	}
	for _, tt := range tests {
		var got strings.Builder
		for _, r := range neighbourhood(rows, tt.id, tt.n) {
			got.WriteString(r.Transaction.ID)
		}
		if got.String() != tt.want {
			t.Errorf("neighbourhood(%q, %d) = %q, want %q", tt.id, tt.n, got.String(), tt.want)
		}
	}
}

func TestCleanModelText(t *testing.T) {
	tests := map[string]string{
		"  plain answer \n":              "plain answer",
		"```\nfenced answer\n```":        "fenced answer",
		"```text\nwith language\n```\n": "with language",
	}
	for in, want := range tests {
		if got := cleanModelText(in); got != want {
			t.Errorf("cleanModelText(%q) = %q, want %q", in, got, want)
		}
	}
}
