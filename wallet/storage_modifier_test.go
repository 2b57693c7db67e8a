package wallet

import (
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hxucaa/cardano-sl/block"
)

func TestStorageModifierMergeFor(t *testing.T) {
	sm := NewStorageModifier()

	first := NewModifier()
	first.AddedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	sm.MergeFor("w1", first)

	second := NewModifier()
	second.AddedUtxo[outpoint(2, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(20)}
	sm.MergeFor("w1", second)

	snap := sm.Snapshot("w1")
	require.NotNil(t, snap)
	assert.Len(t, snap.AddedUtxo, 2)
	assert.Equal(t, 1, sm.Len())
}

func TestStorageModifierCancellationClearsEntry(t *testing.T) {
	sm := NewStorageModifier()

	forward := NewModifier()
	forward.AddedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	sm.MergeFor("w1", forward)

	inverse := NewModifier()
	inverse.RemovedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	sm.MergeFor("w1", inverse)

	assert.Nil(t, sm.Snapshot("w1"))
	assert.Equal(t, 0, sm.Len())
}

func TestStorageModifierSnapshotIsCopy(t *testing.T) {
	sm := NewStorageModifier()

	mod := NewModifier()
	mod.AddedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	sm.MergeFor("w1", mod)

	snap := sm.Snapshot("w1")
	snap.AddedUtxo[outpoint(2, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(1)}

	assert.Len(t, sm.Snapshot("w1").AddedUtxo, 1)
}

func TestStorageModifierDrain(t *testing.T) {
	sm := NewStorageModifier()

	mod := NewModifier()
	mod.AddedUtxo[outpoint(1, 0)] = block.TxOut{Address: "a1", Value: uint256.NewInt(10)}
	sm.MergeFor("w1", mod)

	drained := sm.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, 0, sm.Len())
	assert.Nil(t, sm.Snapshot("w1"))
}

// concurrent merges for independent wallets and one shared wallet must never
// produce a half-applied entry
func TestStorageModifierConcurrentUpdates(t *testing.T) {
	sm := NewStorageModifier()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				mod := NewModifier()
				mod.AddedUtxo[outpoint(byte(w), uint32(i))] = block.TxOut{Address: "a1", Value: uint256.NewInt(1)}
				sm.MergeFor("shared", mod)
			}
		}(w)
	}
	wg.Wait()

	snap := sm.Snapshot("shared")
	require.NotNil(t, snap)
	assert.Len(t, snap.AddedUtxo, workers*perWorker)
}
