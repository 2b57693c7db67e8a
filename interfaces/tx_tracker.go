package interfaces

import (
	"github.com/Hxucaa/cardano-sl/block"
	"github.com/Hxucaa/cardano-sl/chain"
	"github.com/Hxucaa/cardano-sl/keystore"
	"github.com/Hxucaa/cardano-sl/wallet"
)

// Computes per-wallet state deltas from flattened transaction sequences
type TxTrackerInterface interface {
	// ApplyTxs computes the forward delta for one wallet from a batch's
	// triples, consumed in exactly the given order
	ApplyTxs(key *keystore.WalletKey, addrs []block.Address, headerInfo chain.HeaderInfoFn, txs []block.TxTriple) (*wallet.Modifier, error)

	// RollbackTxs computes the inverse delta; currentSlot dates history
	// removals that no longer have a canonical block context
	RollbackTxs(key *keystore.WalletKey, addrs []block.Address, headerInfo chain.HeaderInfoFn, txs []block.TxTriple, currentSlot block.SlotID) (*wallet.Modifier, error)
}
