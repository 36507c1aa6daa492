package ledger

import (
	"testing"

	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterWallets(t *testing.T) {
	wallets := []domain.Wallet{physical("P1", 0, 10), physical("P2", 0, 20), logical("L1", 0, 30)}

	t.Run("all wallets returns input unchanged", func(t *testing.T) {
		assert.Equal(t, wallets, FilterWallets(wallets, domain.AllWallets()))
	})

	t.Run("zero value filter selects all", func(t *testing.T) {
		assert.Equal(t, wallets, FilterWallets(wallets, domain.WalletFilter{}))
	})

	t.Run("specific wallet", func(t *testing.T) {
		got := FilterWallets(wallets, domain.SpecificWallet("P2", "Savings"))
		require.Len(t, got, 1)
		assert.Equal(t, "P2", got[0].ID)
	})

	t.Run("unknown wallet yields empty slice", func(t *testing.T) {
		got := FilterWallets(wallets, domain.SpecificWallet("missing", ""))
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestFilterTransactions(t *testing.T) {
	txs := []domain.Transaction{
		income("T1", 10, day(1), "P1", "L1"),
		expense("T2", 5, day(2), "P2"),
		transfer("T3", 3, day(3), "P2", "P1"),
		transfer("T4", 3, day(4), "P1", "P3"),
		transfer("T5", 3, day(5), "P2", "P3"),
	}

	tests := []struct {
		name   string
		filter domain.WalletFilter
		want   []string
	}{
		{"all", domain.AllWallets(), []string{"T1", "T2", "T3", "T4", "T5"}},
		{"affected and both transfer sides", domain.SpecificWallet("P1", ""), []string{"T1", "T3", "T4"}},
		{"logical wallet", domain.SpecificWallet("L1", ""), []string{"T1"}},
		{"no match", domain.SpecificWallet("X", ""), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTransactions(txs, tt.filter)
			ids := []string{}
			for _, tx := range got {
				ids = append(ids, tx.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
