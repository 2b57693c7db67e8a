package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"sync"

	"github.com/Hxucaa/cardano-sl/wallet"
)

// MemKeyStore is an in-memory keystore for tests and ephemeral nodes
type MemKeyStore struct {
	mu   sync.RWMutex
	keys map[wallet.WalletID]*WalletKey
}

// NewMemKeyStore returns an empty in-memory keystore
func NewMemKeyStore() *MemKeyStore {
	return &MemKeyStore{keys: make(map[wallet.WalletID]*WalletKey)}
}

// GenerateKey creates and stores a fresh key pair for a wallet
func (m *MemKeyStore) GenerateKey(id wallet.WalletID) (*WalletKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	key := &WalletKey{WalletID: id, PublicKey: pub, SecretKey: priv}
	if err := m.StoreKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

func (m *MemKeyStore) LoadKey(id wallet.WalletID) (*WalletKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.keys[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

func (m *MemKeyStore) StoreKey(key *WalletKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys[key.WalletID] = key
	return nil
}

func (m *MemKeyStore) Close() error {
	return nil
}
