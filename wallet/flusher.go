package wallet

import (
	"fmt"
	"sort"

	"github.com/Hxucaa/cardano-sl/block"
	"github.com/Hxucaa/cardano-sl/logx"
)

// Flusher is the persistence step sitting after the sync core: it drains the
// in-memory buffer and folds each wallet's accumulated modifier into its
// persisted record, advancing the wallet's sync tip in the same write.
// The sync core itself never touches persistent wallet state.
type Flusher struct {
	store  Store
	buffer *StorageModifier
}

// NewFlusher creates a flusher over the given store and buffer
func NewFlusher(store Store, buffer *StorageModifier) *Flusher {
	return &Flusher{store: store, buffer: buffer}
}

// Flush drains the buffer and persists all wallets' changes in one batch,
// marking each flushed wallet as synced with tip. On a store failure the
// drained modifiers are merged back into the buffer so no delta is lost.
func (f *Flusher) Flush(tip block.HeaderHash) error {
	drained := f.buffer.Drain()
	if len(drained) == 0 {
		return nil
	}

	metas := make([]*Meta, 0, len(drained))
	for id, mod := range drained {
		meta, err := f.store.Get(id)
		if err != nil {
			f.requeue(drained)
			return fmt.Errorf("flush: could not load wallet %s: %w", id, err)
		}
		if meta == nil {
			logx.Warn("WALLET", fmt.Sprintf("Dropping buffered changes for unknown wallet %s", id))
			continue
		}
		applyModifier(meta, mod)
		meta.SyncTip = NewSyncedWith(tip)
		metas = append(metas, meta)
	}

	if len(metas) == 0 {
		return nil
	}
	if err := f.store.StoreBatch(metas); err != nil {
		f.requeue(drained)
		return fmt.Errorf("flush: %w", err)
	}

	logx.Info("WALLET", fmt.Sprintf("Flushed %d wallets at tip %s", len(metas), tip.Short()))
	return nil
}

// requeue puts drained modifiers back in front of anything buffered since
func (f *Flusher) requeue(drained map[WalletID]*Modifier) {
	for id, mod := range drained {
		f.buffer.Update(id, func(cur *Modifier) *Modifier {
			if cur == nil {
				return mod
			}
			mod.Merge(cur)
			return mod
		})
	}
}

func applyModifier(meta *Meta, mod *Modifier) {
	if meta.Utxo == nil {
		meta.Utxo = make(map[string]block.TxOut)
	}
	for outpoint, out := range mod.AddedUtxo {
		meta.Utxo[OutpointKey(outpoint)] = out
	}
	for outpoint := range mod.RemovedUtxo {
		delete(meta.Utxo, OutpointKey(outpoint))
	}

	meta.History = append(meta.History, mod.AddedHistory...)
	if len(mod.RemovedHistory) > 0 {
		kept := meta.History[:0]
		for _, entry := range meta.History {
			if _, removed := mod.RemovedHistory[entry.TxID]; !removed {
				kept = append(kept, entry)
			}
		}
		meta.History = kept
	}
	sort.SliceStable(meta.History, func(i, j int) bool {
		return meta.History[i].Timestamp.Before(meta.History[j].Timestamp)
	})
}
