package wallet

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hxucaa/cardano-sl/block"
)

func outpoint(seed byte, index uint32) block.TxIn {
	var id block.TxID
	id[0] = seed
	return block.TxIn{TxID: id, Index: index}
}

func entry(seed byte) HistoryEntry {
	var id block.TxID
	id[0] = seed
	return HistoryEntry{
		TxID:      id,
		Slot:      block.SlotID{Epoch: 0, Slot: uint64(seed)},
		Timestamp: time.Unix(int64(seed)*20, 0),
		Received:  uint256.NewInt(uint64(seed)),
		Spent:     uint256.NewInt(0),
	}
}

func TestModifierMergeAccumulates(t *testing.T) {
	a := NewModifier()
	a.AddedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	a.AddedHistory = append(a.AddedHistory, entry(1))

	b := NewModifier()
	b.AddedUtxo[outpoint(2, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(20)}
	b.AddedHistory = append(b.AddedHistory, entry(2))

	a.Merge(b)

	assert.Len(t, a.AddedUtxo, 2)
	require.Len(t, a.AddedHistory, 2)
	// chronological order preserved
	assert.Equal(t, entry(1).TxID, a.AddedHistory[0].TxID)
	assert.Equal(t, entry(2).TxID, a.AddedHistory[1].TxID)
}

func TestModifierMergeCancels(t *testing.T) {
	forward := NewModifier()
	forward.AddedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	forward.RemovedUtxo[outpoint(2, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(5)}
	forward.AddedHistory = append(forward.AddedHistory, entry(1))

	inverse := NewModifier()
	inverse.RemovedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	inverse.AddedUtxo[outpoint(2, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(5)}
	inverse.RemovedHistory[entry(1).TxID] = block.SlotID{Epoch: 0, Slot: 9}

	forward.Merge(inverse)

	assert.True(t, forward.IsEmpty(), "inverse delta should cancel the forward delta, got %+v", forward)
}

func TestModifierMergeAssociative(t *testing.T) {
	build := func() (*Modifier, *Modifier, *Modifier) {
		a := NewModifier()
		a.AddedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
		a.AddedHistory = append(a.AddedHistory, entry(1))

		b := NewModifier()
		b.RemovedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
		b.AddedUtxo[outpoint(2, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(7)}
		b.AddedHistory = append(b.AddedHistory, entry(2))

		c := NewModifier()
		c.RemovedUtxo[outpoint(2, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(7)}
		c.RemovedHistory[entry(2).TxID] = block.SlotID{Epoch: 0, Slot: 3}

		return a, b, c
	}

	// (a <> b) <> c
	a1, b1, c1 := build()
	a1.Merge(b1)
	a1.Merge(c1)

	// a <> (b <> c)
	a2, b2, c2 := build()
	b2.Merge(c2)
	a2.Merge(b2)

	assert.Equal(t, a1.AddedUtxo, a2.AddedUtxo)
	assert.Equal(t, a1.RemovedUtxo, a2.RemovedUtxo)
	assert.Equal(t, a1.AddedHistory, a2.AddedHistory)
	assert.Equal(t, a1.RemovedHistory, a2.RemovedHistory)
}

func TestModifierClone(t *testing.T) {
	m := NewModifier()
	m.AddedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	m.AddedHistory = append(m.AddedHistory, entry(1))

	clone := m.Clone()
	clone.AddedUtxo[outpoint(2, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(1)}
	clone.AddedHistory = append(clone.AddedHistory, entry(2))

	assert.Len(t, m.AddedUtxo, 1)
	assert.Len(t, m.AddedHistory, 1)
}
