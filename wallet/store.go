package wallet

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Hxucaa/cardano-sl/block"
	"github.com/Hxucaa/cardano-sl/db"
	"github.com/Hxucaa/cardano-sl/logx"
)

const walletKeyPrefix = "wallet/"

// Meta is a wallet's persisted record: tracked addresses, derived state and
// the sync tip the derived state is consistent with
type Meta struct {
	ID        WalletID               `json:"id"`
	Addresses []block.Address        `json:"addresses"`
	SyncTip   *SyncTip               `json:"sync_tip,omitempty"`
	Utxo      map[string]block.TxOut `json:"utxo,omitempty"`
	History   []HistoryEntry         `json:"history,omitempty"`
}

// OutpointKey encodes an outpoint as the string key used in Meta.Utxo
func OutpointKey(in block.TxIn) string {
	return fmt.Sprintf("%s:%d", in.TxID, in.Index)
}

// Store is the persistent wallet store. The sync core only reads from it;
// writes happen in the flush step.
type Store interface {
	// WalletIDs returns all known wallet ids
	WalletIDs() ([]WalletID, error)

	// Get returns the wallet record, or both nil if no record exists
	Get(id WalletID) (*Meta, error)

	// SyncTip returns the wallet's recorded sync tip, nil when the wallet
	// has no record
	SyncTip(id WalletID) (*SyncTip, error)

	// Store persists a wallet record
	Store(meta *Meta) error

	// StoreBatch persists multiple wallet records atomically
	StoreBatch(metas []*Meta) error

	MustClose()
}

// GenericStore persists wallet records as JSON under a db provider
type GenericStore struct {
	mu         sync.RWMutex
	dbProvider db.IterableProvider
}

// NewGenericStore creates a wallet store over the given provider
func NewGenericStore(dbProvider db.IterableProvider) (*GenericStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &GenericStore{dbProvider: dbProvider}, nil
}

func (s *GenericStore) getDbKey(id WalletID) []byte {
	return []byte(walletKeyPrefix + string(id))
}

// WalletIDs returns all known wallet ids
func (s *GenericStore) WalletIDs() ([]WalletID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]WalletID, 0)
	err := s.dbProvider.IteratePrefix([]byte(walletKeyPrefix), func(key, value []byte) bool {
		ids = append(ids, WalletID(key[len(walletKeyPrefix):]))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("could not list wallets: %w", err)
	}
	return ids, nil
}

// Get returns the wallet record from db, both nil if it does not exist
func (s *GenericStore) Get(id WalletID) (*Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.dbProvider.Get(s.getDbKey(id))
	if err != nil {
		return nil, fmt.Errorf("could not get wallet %s from db: %w", id, err)
	}
	if data == nil {
		return nil, nil
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet %s: %w", id, err)
	}
	return &meta, nil
}

// SyncTip returns the wallet's recorded sync tip, nil when no record exists
func (s *GenericStore) SyncTip(id WalletID) (*SyncTip, error) {
	meta, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, nil
	}
	return meta.SyncTip, nil
}

// Store persists a wallet record
func (s *GenericStore) Store(meta *Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet %s: %w", meta.ID, err)
	}
	if err := s.dbProvider.Put(s.getDbKey(meta.ID), data); err != nil {
		return fmt.Errorf("failed to write wallet %s to db: %w", meta.ID, err)
	}
	return nil
}

// StoreBatch persists multiple wallet records in one atomic write
func (s *GenericStore) StoreBatch(metas []*Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.dbProvider.Batch()
	defer batch.Close()
	for _, meta := range metas {
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to marshal wallet %s: %w", meta.ID, err)
		}
		batch.Put(s.getDbKey(meta.ID), data)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to write batch of wallets to database: %w", err)
	}
	return nil
}

// RestoreGenesis creates records for wallets named in the genesis config.
// Existing records are left untouched.
func (s *GenericStore) RestoreGenesis(metas []*Meta) error {
	for _, meta := range metas {
		existing, err := s.Get(meta.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if meta.SyncTip == nil {
			meta.SyncTip = NewNotSynced()
		}
		if err := s.Store(meta); err != nil {
			return err
		}
		logx.Info("WALLET", fmt.Sprintf("Restored genesis wallet %s with %d addresses", meta.ID, len(meta.Addresses)))
	}
	return nil
}

func (s *GenericStore) MustClose() {
	if err := s.dbProvider.Close(); err != nil {
		logx.Error("WALLET", fmt.Sprintf("Failed to close wallet store: %v", err))
	}
}
