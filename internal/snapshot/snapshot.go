// Package snapshot reads and writes point-in-time ledger exports and loads ledgers from storage.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	bq "github.com/dvloznov/wallet-ledger/internal/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/dvloznov/wallet-ledger/internal/gcs"
)

// ErrUnsupportedSource is returned for URIs other than local paths and gs://.
var ErrUnsupportedSource = errors.New("unsupported snapshot source")

// Ledger is every wallet and transaction at the moment it was taken.
type Ledger struct {
	TakenAt      *time.Time           `json:"taken_at,omitempty"`
	Wallets      []domain.Wallet      `json:"wallets"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Loader produces the ledger a reconciliation runs against.
// cutoff may be used to skip transactions that cannot matter; nil means everything.
type Loader interface {
	LoadLedger(ctx context.Context, cutoff *time.Time) (*Ledger, error)
}

// Decode parses a JSON snapshot.
func Decode(data []byte) (*Ledger, error) {
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("Decode: %w", err)
	}
	if l.Wallets == nil {
		l.Wallets = []domain.Wallet{}
	}
	if l.Transactions == nil {
		l.Transactions = []domain.Transaction{}
	}
	return &l, nil
}

// Read parses a JSON snapshot from r.
func Read(r io.Reader) (*Ledger, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Read: %w", err)
	}
	return Decode(data)
}

// Encode renders the snapshot as indented JSON.
func (l *Ledger) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("Encode: %w", err)
	}
	return data, nil
}

// FileLoader loads a snapshot from a local path or a gs:// URI.
type FileLoader struct {
	Source  string
	Storage gcs.StorageService
}

// LoadLedger implements Loader. The cutoff is ignored; the snapshot is returned whole.
func (f FileLoader) LoadLedger(ctx context.Context, _ *time.Time) (*Ledger, error) {
	data, err := fetch(ctx, f.Source, f.Storage)
	if err != nil {
		return nil, fmt.Errorf("LoadLedger: %w", err)
	}
	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("LoadLedger: %s: %w", f.Source, err)
	}
	return l, nil
}

func fetch(ctx context.Context, source string, storage gcs.StorageService) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "gs://"):
		if storage == nil {
			return nil, fmt.Errorf("%s: no storage service configured", source)
		}
		return storage.FetchFromGCS(ctx, source)
	case strings.Contains(source, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	default:
		return os.ReadFile(source)
	}
}

// RepositoryLoader loads the ledger from BigQuery.
type RepositoryLoader struct {
	Repo bq.LedgerRepository
	Now  func() time.Time
}

// LoadLedger implements Loader. With a cutoff only transactions up to it are read.
func (r RepositoryLoader) LoadLedger(ctx context.Context, cutoff *time.Time) (*Ledger, error) {
	walletRows, err := r.Repo.ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadLedger: listing wallets: %w", err)
	}

	var txRows []*bq.TransactionRow
	if cutoff != nil {
		txRows, err = r.Repo.ListTransactionsUpTo(ctx, *cutoff)
	} else {
		txRows, err = r.Repo.ListTransactions(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("LoadLedger: listing transactions: %w", err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	taken := now().UTC()

	return &Ledger{
		TakenAt:      &taken,
		Wallets:      bq.WalletsToDomain(walletRows),
		Transactions: bq.TransactionsToDomain(txRows),
	}, nil
}
