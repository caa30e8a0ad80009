package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/alpenava/nayax-bridge/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
)

// Persisted state keys. The legacy keys come from the pre-history state
// format and are removed on every save once migration has run.
const (
	keyTransactionHistory = "state:transaction_history"
	keyLegacyLastSales    = "state:last_sales_data"
	keyLegacyTransactions = "state:last_transactions"
	keyLegacyPeriodTotals = "state:period_totals"
)

// Store interface (kept minimal, allows swapping implementations).
type Store interface {
	LoadHistory(ctx context.Context) (models.History, error)
	SaveHistory(ctx context.Context, history models.History) error
	LoadLegacyLastSales(ctx context.Context) (map[string]models.Transaction, error)
	Close() error
}

// BadgerStore implements Store with Badger DB.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(path))
	opts.Logger = nil                         // disable badger logs for test clarity
	opts = opts.WithValueLogFileSize(1 << 20) // smaller value log for local dev
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) getJSON(key string, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, out)
		})
	})
}

// LoadHistory reads the persisted transaction history. A missing key yields
// an empty, usable map.
func (s *BadgerStore) LoadHistory(ctx context.Context) (models.History, error) {
	history := models.History{}
	if err := s.getJSON(keyTransactionHistory, &history); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.History{}, nil
		}
		return nil, err
	}
	return history, nil
}

// SaveHistory writes the full history map and drops the obsolete legacy
// keys in the same transaction.
func (s *BadgerStore) SaveHistory(ctx context.Context, history models.History) error {
	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyTransactionHistory), data); err != nil {
			return err
		}
		for _, key := range []string{keyLegacyLastSales, keyLegacyTransactions, keyLegacyPeriodTotals} {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveLegacyLastSales writes the pre-history format. Nothing in the poll
// path writes this anymore; it exists for migration tooling and tests.
func (s *BadgerStore) SaveLegacyLastSales(ctx context.Context, legacy map[string]models.Transaction) error {
	data, err := json.Marshal(legacy)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyLegacyLastSales), data)
	})
}

// LoadLegacyLastSales reads the pre-history format: one record per machine.
// A missing key yields nil, meaning nothing to migrate.
func (s *BadgerStore) LoadLegacyLastSales(ctx context.Context) (map[string]models.Transaction, error) {
	legacy := map[string]models.Transaction{}
	if err := s.getJSON(keyLegacyLastSales, &legacy); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return legacy, nil
}
