package wallet

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/Hxucaa/cardano-sl/block"
)

// HistoryEntry is one wallet-relevant transaction in the wallet's history
type HistoryEntry struct {
	TxID      block.TxID   `json:"tx_id"`
	Slot      block.SlotID `json:"slot"`
	Timestamp time.Time    `json:"timestamp"`
	Received  *uint256.Int `json:"received"`
	Spent     *uint256.Int `json:"spent"`
}

// Modifier is an accumulated, not-yet-flushed delta of one wallet's derived
// state. Modifiers for the same wallet compose associatively in chronological
// application order via Merge.
type Modifier struct {
	// AddedUtxo holds outputs the wallet gained, keyed by outpoint
	AddedUtxo map[block.TxIn]block.TxOut

	// RemovedUtxo holds outputs the wallet lost, keyed by outpoint,
	// with the spent output retained for restoring state on rollback
	RemovedUtxo map[block.TxIn]block.TxOut

	// AddedHistory holds new history entries in chronological order
	AddedHistory []HistoryEntry

	// RemovedHistory maps ids of history entries to drop to the slot
	// the removal was observed in
	RemovedHistory map[block.TxID]block.SlotID
}

// NewModifier returns an empty modifier
func NewModifier() *Modifier {
	return &Modifier{
		AddedUtxo:      make(map[block.TxIn]block.TxOut),
		RemovedUtxo:    make(map[block.TxIn]block.TxOut),
		RemovedHistory: make(map[block.TxID]block.SlotID),
	}
}

// IsEmpty reports whether the modifier carries no changes
func (m *Modifier) IsEmpty() bool {
	return len(m.AddedUtxo) == 0 &&
		len(m.RemovedUtxo) == 0 &&
		len(m.AddedHistory) == 0 &&
		len(m.RemovedHistory) == 0
}

// Merge folds next into m, with m the earlier delta and next the later one.
// Opposite operations on the same outpoint or history entry cancel out, so
// applying a batch and rolling the same batch back leaves m unchanged.
func (m *Modifier) Merge(next *Modifier) {
	for outpoint, out := range next.AddedUtxo {
		if _, pending := m.RemovedUtxo[outpoint]; pending {
			delete(m.RemovedUtxo, outpoint)
		} else {
			m.AddedUtxo[outpoint] = out
		}
	}
	for outpoint, out := range next.RemovedUtxo {
		if _, pending := m.AddedUtxo[outpoint]; pending {
			delete(m.AddedUtxo, outpoint)
		} else {
			m.RemovedUtxo[outpoint] = out
		}
	}

	for _, entry := range next.AddedHistory {
		if _, pending := m.RemovedHistory[entry.TxID]; pending {
			delete(m.RemovedHistory, entry.TxID)
		} else {
			m.AddedHistory = append(m.AddedHistory, entry)
		}
	}
	for txID, slot := range next.RemovedHistory {
		if idx := historyIndex(m.AddedHistory, txID); idx >= 0 {
			m.AddedHistory = append(m.AddedHistory[:idx], m.AddedHistory[idx+1:]...)
		} else {
			m.RemovedHistory[txID] = slot
		}
	}
}

// Clone returns a deep copy of the modifier
func (m *Modifier) Clone() *Modifier {
	clone := NewModifier()
	for outpoint, out := range m.AddedUtxo {
		clone.AddedUtxo[outpoint] = out
	}
	for outpoint, out := range m.RemovedUtxo {
		clone.RemovedUtxo[outpoint] = out
	}
	clone.AddedHistory = append(clone.AddedHistory, m.AddedHistory...)
	for txID, slot := range m.RemovedHistory {
		clone.RemovedHistory[txID] = slot
	}
	return clone
}

func historyIndex(entries []HistoryEntry, txID block.TxID) int {
	for i, entry := range entries {
		if entry.TxID == txID {
			return i
		}
	}
	return -1
}
