package pipeline

import (
	"fmt"
	"strings"

	"github.com/dvloznov/wallet-ledger/internal/ledger"
)

// buildExplanationPrompt describes the discrepancy and the running balances around it.
func buildExplanationPrompt(report *ledger.Report) string {
	var b strings.Builder

	b.WriteString("You are auditing a personal wallet ledger.\n\n")
	b.WriteString("The ledger has PHYSICAL wallets (real money: cash, bank accounts, metals, crypto) and ")
	b.WriteString("LOGICAL wallets (budget envelopes). Every movement of real money must be mirrored in the ")
	b.WriteString("logical wallets, so the physical and logical totals should always be equal.\n\n")

	cutoff := "now"
	if report.Cutoff != nil {
		cutoff = report.Cutoff.UTC().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(&b, "Balances as of %s (%s):\n", cutoff, report.Filter)
	fmt.Fprintf(&b, "- total physical: %s\n", ledger.FormatAmount(report.TotalPhysical))
	fmt.Fprintf(&b, "- total logical: %s\n\n", ledger.FormatAmount(report.TotalLogical))

	fmt.Fprintf(&b, "The totals first diverged at transaction %q. Running totals around it:\n\n", report.DiscrepancyTransactionID)
	b.WriteString("id | date | type | amount | wallets | physical | logical | difference\n")
	for _, row := range neighbourhood(report.RunningBalances, report.DiscrepancyTransactionID, explainNeighbourhood) {
		tx := row.Transaction
		date := ""
		if tx.Date != nil {
			date = tx.Date.UTC().Format("2006-01-02")
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s | %s | %s\n",
			tx.ID, date, tx.Type, ledger.FormatAmount(tx.Magnitude()), strings.Join(tx.WalletIDs(), ","),
			ledger.FormatAmount(row.PhysicalBalance), ledger.FormatAmount(row.LogicalBalance),
			ledger.FormatAmount(row.Difference))
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Explain in at most three sentences what most likely went wrong.\n")
	b.WriteString("- Suggest the single correcting entry (type, amount, wallet) if one is obvious.\n")
	b.WriteString("- Do not invent transactions that are not listed.\n")
	b.WriteString("- Answer in plain text. Do NOT use Markdown or code fences.\n")

	return b.String()
}

// neighbourhood returns up to n rows on each side of the row for transaction id.
func neighbourhood(rows []ledger.TransactionWithBalances, id string, n int) []ledger.TransactionWithBalances {
	idx := -1
	for i, row := range rows {
		if row.Transaction.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	lo := max(idx-n, 0)
	hi := min(idx+n+1, len(rows))
	return rows[lo:hi]
}

// cleanModelText strips Markdown fences if the model ignored instructions.
func cleanModelText(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return strings.Trim(s, "`")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
