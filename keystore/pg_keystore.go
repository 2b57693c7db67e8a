package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	_ "github.com/lib/pq"

	"github.com/Hxucaa/cardano-sl/wallet"
)

// pgStore keeps wallet secret keys in Postgres, AES-GCM encrypted under a
// master key. Only the ed25519 seed is stored; the full private key is
// re-derived on load.
type pgStore struct {
	db   *sql.DB
	aead cipher.AEAD
}

// NewPgEncryptedStore opens a Postgres-backed keystore. The master key is
// base64-encoded and must decode to 32 bytes.
func NewPgEncryptedStore(db *sql.DB, base64MasterKey string) (KeyStore, error) {
	mk, err := base64.StdEncoding.DecodeString(base64MasterKey)
	if err != nil {
		return nil, fmt.Errorf("master-key decode: %w", err)
	}
	if len(mk) != 32 {
		return nil, errors.New("master-key must be 32 bytes")
	}

	block, _ := aes.NewCipher(mk)
	aead, _ := cipher.NewGCM(block)

	return &pgStore{db: db, aead: aead}, nil
}

func (p *pgStore) encrypt(plain []byte) ([]byte, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return append(nonce, p.aead.Seal(nil, nonce, plain, nil)...), nil
}

func (p *pgStore) decrypt(ciphertext []byte) ([]byte, error) {
	ns := p.aead.NonceSize()
	if len(ciphertext) < ns {
		return nil, errors.New("ciphertext too short")
	}
	return p.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], nil)
}

func (p *pgStore) LoadKey(id wallet.WalletID) (*WalletKey, error) {
	var pub []byte
	var enc []byte

	err := p.db.QueryRow(`SELECT public_key, enc_seed FROM wallet_keys WHERE wallet_id=$1`, string(id)).
		Scan(&pub, &enc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load key %s: %w", id, err)
	}

	seed, err := p.decrypt(enc)
	if err != nil {
		return nil, fmt.Errorf("decrypt key %s: %w", id, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("key %s: invalid seed length %d", id, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	return &WalletKey{
		WalletID:  id,
		PublicKey: ed25519.PublicKey(pub),
		SecretKey: priv,
	}, nil
}

func (p *pgStore) StoreKey(key *WalletKey) error {
	enc, err := p.encrypt(key.SecretKey.Seed())
	if err != nil {
		return fmt.Errorf("encrypt key %s: %w", key.WalletID, err)
	}

	_, err = p.db.Exec(
		`INSERT INTO wallet_keys(wallet_id, public_key, enc_seed) VALUES($1,$2,$3)
		 ON CONFLICT (wallet_id) DO UPDATE SET public_key=$2, enc_seed=$3`,
		string(key.WalletID), []byte(key.PublicKey), enc,
	)
	if err != nil {
		return fmt.Errorf("store key %s: %w", key.WalletID, err)
	}
	return nil
}

func (p *pgStore) Close() error {
	return p.db.Close()
}
