package keystore

import (
	"crypto/ed25519"
	"errors"

	"github.com/Hxucaa/cardano-sl/wallet"
)

// ErrKeyNotFound is returned when no key material exists for a wallet
var ErrKeyNotFound = errors.New("wallet key not found")

// WalletKey is the owning key material of one wallet
type WalletKey struct {
	WalletID  wallet.WalletID
	PublicKey ed25519.PublicKey
	SecretKey ed25519.PrivateKey
}

// KeyStore holds wallet key material
type KeyStore interface {
	// LoadKey returns the key material for a wallet, ErrKeyNotFound when absent
	LoadKey(id wallet.WalletID) (*WalletKey, error)

	// StoreKey persists key material for a wallet
	StoreKey(key *WalletKey) error

	Close() error
}
