package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	bq "github.com/dvloznov/wallet-ledger/internal/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "taken_at": "2024-02-01T00:00:00Z",
  "wallets": [
    {"id": "cash", "name": "Cash", "currency": "USD", "type": "PHYSICAL", "balance": 80, "initial_balance": 0},
    {"id": "food", "name": "Food", "currency": "USD", "type": "LOGICAL", "balance": 80, "initial_balance": 0}
  ],
  "transactions": [
    {"id": "t1", "type": "INCOME", "amount": 100, "date": "2024-01-05T10:00:00Z", "affected_wallet_ids": ["cash", "food"]},
    {"id": "t2", "type": "EXPENSE", "amount": -20, "date": "2024-01-06T10:00:00Z", "affected_wallet_ids": ["cash", "food"]}
  ]
}`

type mockStorage struct {
	fetchFunc func(ctx context.Context, uri string) ([]byte, error)
}

func (m *mockStorage) UploadBytes(ctx context.Context, bucket, object, contentType string, data []byte) (string, error) {
	return "", nil
}

func (m *mockStorage) UploadFile(ctx context.Context, bucket, object, path string) (string, error) {
	return "", nil
}

func (m *mockStorage) FetchFromGCS(ctx context.Context, uri string) ([]byte, error) {
	return m.fetchFunc(ctx, uri)
}

type mockLedgerRepo struct {
	wallets    []*bq.WalletRow
	txs        []*bq.TransactionRow
	upToCalled *time.Time
	err        error
}

func (m *mockLedgerRepo) ListWallets(ctx context.Context) ([]*bq.WalletRow, error) {
	return m.wallets, m.err
}

func (m *mockLedgerRepo) ListTransactions(ctx context.Context) ([]*bq.TransactionRow, error) {
	return m.txs, nil
}

func (m *mockLedgerRepo) ListTransactionsUpTo(ctx context.Context, cutoff time.Time) ([]*bq.TransactionRow, error) {
	m.upToCalled = &cutoff
	return m.txs[:1], nil
}

func TestDecode(t *testing.T) {
	l, err := Decode([]byte(sample))
	require.NoError(t, err)

	require.NotNil(t, l.TakenAt)
	assert.Len(t, l.Wallets, 2)
	require.Len(t, l.Transactions, 2)
	assert.Equal(t, domain.WalletTypeLogical, l.Wallets[1].Type)
	assert.Equal(t, -20.0, l.Transactions[1].Amount)
	require.NotNil(t, l.Transactions[0].Date)
	assert.Equal(t, 5, l.Transactions[0].Date.Day())
}

func TestDecode_EmptyAndInvalid(t *testing.T) {
	l, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, l.Wallets)
	assert.NotNil(t, l.Transactions)

	_, err = Decode([]byte(`{"wallets": 5}`))
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	l, err := Decode([]byte(sample))
	require.NoError(t, err)

	data, err := l.Encode()
	require.NoError(t, err)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, l.Wallets, again.Wallets)
	assert.Equal(t, len(l.Transactions), len(again.Transactions))
}

func TestFileLoader_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	l, err := FileLoader{Source: path}.LoadLedger(context.Background(), nil)

	require.NoError(t, err)
	assert.Len(t, l.Transactions, 2)
}

func TestFileLoader_GCS(t *testing.T) {
	var gotURI string
	storage := &mockStorage{fetchFunc: func(ctx context.Context, uri string) ([]byte, error) {
		gotURI = uri
		return []byte(sample), nil
	}}

	l, err := FileLoader{Source: "gs://bucket/ledger.json", Storage: storage}.LoadLedger(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "gs://bucket/ledger.json", gotURI)
	assert.Len(t, l.Wallets, 2)
}

func TestFileLoader_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := FileLoader{Source: "s3://bucket/ledger.json"}.LoadLedger(ctx, nil)
	assert.True(t, errors.Is(err, ErrUnsupportedSource))

	_, err = FileLoader{Source: "gs://bucket/ledger.json"}.LoadLedger(ctx, nil)
	assert.Error(t, err, "gs:// without storage")

	_, err = FileLoader{Source: filepath.Join(t.TempDir(), "missing.json")}.LoadLedger(ctx, nil)
	assert.Error(t, err)

	fail := &mockStorage{fetchFunc: func(ctx context.Context, uri string) ([]byte, error) {
		return nil, errors.New("boom")
	}}
	_, err = FileLoader{Source: "gs://b/o", Storage: fail}.LoadLedger(ctx, nil)
	assert.ErrorContains(t, err, "boom")
}

func TestRepositoryLoader(t *testing.T) {
	repo := &mockLedgerRepo{
		wallets: []*bq.WalletRow{{WalletID: "cash", WalletType: "PHYSICAL"}},
		txs:     []*bq.TransactionRow{{TransactionID: "t1", TransactionType: "INCOME"}, {TransactionID: "t2", TransactionType: "EXPENSE"}},
	}
	fixed := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	loader := RepositoryLoader{Repo: repo, Now: func() time.Time { return fixed }}

	all, err := loader.LoadLedger(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all.Transactions, 2)
	assert.Nil(t, repo.upToCalled)
	assert.Equal(t, fixed, *all.TakenAt)

	cutoff := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	upTo, err := loader.LoadLedger(context.Background(), &cutoff)
	require.NoError(t, err)
	assert.Len(t, upTo.Transactions, 1)
	require.NotNil(t, repo.upToCalled)
	assert.Equal(t, cutoff, *repo.upToCalled)
}

func TestRepositoryLoader_Error(t *testing.T) {
	repo := &mockLedgerRepo{err: errors.New("bq down")}

	_, err := RepositoryLoader{Repo: repo}.LoadLedger(context.Background(), nil)

	assert.ErrorContains(t, err, "listing wallets")
}
