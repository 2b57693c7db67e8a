package tracker

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Hxucaa/cardano-sl/block"
	"github.com/Hxucaa/cardano-sl/chain"
	"github.com/Hxucaa/cardano-sl/keystore"
	"github.com/Hxucaa/cardano-sl/wallet"
)

var (
	// ErrNoKey is returned when a wallet's key material is missing
	ErrNoKey = errors.New("tracker: wallet key material is nil")

	// ErrTxUndoMismatch is returned when a transaction's input and undo
	// lists differ in length
	ErrTxUndoMismatch = errors.New("tracker: tx input/undo length mismatch")

	// ErrNoHeaderInfo is returned when a triple's header cannot be resolved
	ErrNoHeaderInfo = errors.New("tracker: no header info")
)

// UtxoTracker computes wallet state deltas by matching transaction outputs
// against the wallet's tracked addresses and resolving spent inputs through
// undo data
type UtxoTracker struct{}

// NewUtxoTracker returns a tracker
func NewUtxoTracker() *UtxoTracker {
	return &UtxoTracker{}
}

// ApplyTxs computes the forward delta for one wallet: outputs paying a
// tracked address become new utxo, inputs whose undo output belongs to the
// wallet remove utxo, and any wallet-relevant transaction gains a history
// entry timestamped from its header
func (t *UtxoTracker) ApplyTxs(
	key *keystore.WalletKey,
	addrs []block.Address,
	headerInfo chain.HeaderInfoFn,
	txs []block.TxTriple,
) (*wallet.Modifier, error) {
	if key == nil {
		return nil, ErrNoKey
	}

	own := addressSet(addrs)
	mod := wallet.NewModifier()
	for _, triple := range txs {
		info := headerInfo(triple.Header.Hash)
		if info == nil {
			return nil, fmt.Errorf("%w for header %s", ErrNoHeaderInfo, triple.Header.Hash.Short())
		}
		if len(triple.Tx.Inputs) != len(triple.Undo) {
			return nil, fmt.Errorf("%w: %d inputs, %d undos", ErrTxUndoMismatch, len(triple.Tx.Inputs), len(triple.Undo))
		}

		txID := triple.Tx.ID()
		received := uint256.NewInt(0)
		spent := uint256.NewInt(0)

		for i, out := range triple.Tx.Outputs {
			if !own[out.Address] {
				continue
			}
			mod.AddedUtxo[block.TxIn{TxID: txID, Index: uint32(i)}] = out
			if out.Value != nil {
				received.Add(received, out.Value)
			}
		}
		for i, in := range triple.Tx.Inputs {
			spentOut := triple.Undo[i]
			if !own[spentOut.Address] {
				continue
			}
			mod.RemovedUtxo[in] = spentOut
			if spentOut.Value != nil {
				spent.Add(spent, spentOut.Value)
			}
		}

		if received.IsZero() && spent.IsZero() {
			continue
		}
		mod.AddedHistory = append(mod.AddedHistory, wallet.HistoryEntry{
			TxID:      txID,
			Slot:      info.Slot,
			Timestamp: info.Timestamp,
			Received:  received,
			Spent:     spent,
		})
	}
	return mod, nil
}

// RollbackTxs computes the inverse delta: the transaction's outputs cease to
// exist, its consumed inputs are restored from undo data, and its history
// entry is dropped. History removals are dated with the current slot since
// the block context is gone after rollback.
func (t *UtxoTracker) RollbackTxs(
	key *keystore.WalletKey,
	addrs []block.Address,
	headerInfo chain.HeaderInfoFn,
	txs []block.TxTriple,
	currentSlot block.SlotID,
) (*wallet.Modifier, error) {
	if key == nil {
		return nil, ErrNoKey
	}

	own := addressSet(addrs)
	mod := wallet.NewModifier()
	for _, triple := range txs {
		if headerInfo(triple.Header.Hash) == nil {
			return nil, fmt.Errorf("%w for header %s", ErrNoHeaderInfo, triple.Header.Hash.Short())
		}
		if len(triple.Tx.Inputs) != len(triple.Undo) {
			return nil, fmt.Errorf("%w: %d inputs, %d undos", ErrTxUndoMismatch, len(triple.Tx.Inputs), len(triple.Undo))
		}

		txID := triple.Tx.ID()
		relevant := false

		for i, out := range triple.Tx.Outputs {
			if !own[out.Address] {
				continue
			}
			mod.RemovedUtxo[block.TxIn{TxID: txID, Index: uint32(i)}] = out
			relevant = true
		}
		for i, in := range triple.Tx.Inputs {
			spentOut := triple.Undo[i]
			if !own[spentOut.Address] {
				continue
			}
			mod.AddedUtxo[in] = spentOut
			relevant = true
		}

		if relevant {
			mod.RemovedHistory[txID] = currentSlot
		}
	}
	return mod, nil
}

func addressSet(addrs []block.Address) map[block.Address]bool {
	own := make(map[block.Address]bool, len(addrs))
	for _, addr := range addrs {
		own[addr] = true
	}
	return own
}
