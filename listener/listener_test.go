package listener

import (
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hxucaa/cardano-sl/block"
	"github.com/Hxucaa/cardano-sl/chain"
	"github.com/Hxucaa/cardano-sl/db"
	"github.com/Hxucaa/cardano-sl/events"
	"github.com/Hxucaa/cardano-sl/interfaces"
	"github.com/Hxucaa/cardano-sl/keystore"
	"github.com/Hxucaa/cardano-sl/tracker"
	"github.com/Hxucaa/cardano-sl/wallet"
)

func newRealTracker() interfaces.TxTrackerInterface {
	return tracker.NewUtxoTracker()
}

type stubChain struct {
	tip  block.HeaderHash
	sd   chain.SlottingData
	slot block.SlotID
}

func (s *stubChain) GetTip() (block.HeaderHash, error)            { return s.tip, nil }
func (s *stubChain) GetSlottingData() (chain.SlottingData, error) { return s.sd, nil }
func (s *stubChain) CurrentSlot() (block.SlotID, error)           { return s.slot, nil }

// failingTracker fails for one wallet and delegates the rest
type failingTracker struct {
	inner   interfaces.TxTrackerInterface
	failFor wallet.WalletID
}

var errTrackerBoom = errors.New("tracking computation failed")

func (f *failingTracker) ApplyTxs(key *keystore.WalletKey, addrs []block.Address, hi chain.HeaderInfoFn, txs []block.TxTriple) (*wallet.Modifier, error) {
	if key.WalletID == f.failFor {
		return nil, errTrackerBoom
	}
	return f.inner.ApplyTxs(key, addrs, hi, txs)
}

func (f *failingTracker) RollbackTxs(key *keystore.WalletKey, addrs []block.Address, hi chain.HeaderInfoFn, txs []block.TxTriple, slot block.SlotID) (*wallet.Modifier, error) {
	if key.WalletID == f.failFor {
		return nil, errTrackerBoom
	}
	return f.inner.RollbackTxs(key, addrs, hi, txs, slot)
}

// slowTracker delays every computation, for watchdog tests
type slowTracker struct {
	inner interfaces.TxTrackerInterface
	delay time.Duration
}

func (s *slowTracker) ApplyTxs(key *keystore.WalletKey, addrs []block.Address, hi chain.HeaderInfoFn, txs []block.TxTriple) (*wallet.Modifier, error) {
	time.Sleep(s.delay)
	return s.inner.ApplyTxs(key, addrs, hi, txs)
}

func (s *slowTracker) RollbackTxs(key *keystore.WalletKey, addrs []block.Address, hi chain.HeaderInfoFn, txs []block.TxTriple, slot block.SlotID) (*wallet.Modifier, error) {
	time.Sleep(s.delay)
	return s.inner.RollbackTxs(key, addrs, hi, txs, slot)
}

type testEnv struct {
	chain  *stubChain
	store  *wallet.GenericStore
	keys   *keystore.MemKeyStore
	buffer *wallet.StorageModifier
	bus    *events.EventBus
	events chan events.SyncEvent
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := wallet.NewGenericStore(db.NewMemoryProvider())
	require.NoError(t, err)

	bus := events.NewEventBus()
	_, ch := bus.Subscribe()

	return &testEnv{
		chain: &stubChain{
			sd: chain.SlottingData{
				SystemStart:  time.Date(2017, 9, 29, 0, 0, 0, 0, time.UTC),
				SlotDuration: 20 * time.Second,
				EpochSlots:   21600,
			},
			slot: block.SlotID{Epoch: 0, Slot: 11},
		},
		store:  store,
		keys:   keystore.NewMemKeyStore(),
		buffer: wallet.NewStorageModifier(),
		bus:    bus,
		events: ch,
	}
}

func (e *testEnv) listener(tracker interfaces.TxTrackerInterface) *BlockListener {
	return NewBlockListener(e.chain, e.store, e.keys, tracker, e.buffer, e.bus)
}

func (e *testEnv) addWallet(t *testing.T, id wallet.WalletID, syncTip *wallet.SyncTip, addrs ...block.Address) {
	t.Helper()
	require.NoError(t, e.store.Store(&wallet.Meta{ID: id, Addresses: addrs, SyncTip: syncTip}))
	_, err := e.keys.GenerateKey(id)
	require.NoError(t, err)
}

func drainEvents(ch chan events.SyncEvent) []events.SyncEvent {
	var out []events.SyncEvent
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

// payment builds a tx paying value to addr from an outside output
func payment(seed byte, addr block.Address, value uint64) (*block.Tx, block.TxUndo) {
	tx := &block.Tx{
		Inputs:  []block.TxIn{{TxID: block.TxID{seed}, Index: 0}},
		Outputs: []block.TxOut{{Address: addr, Value: uint256.NewInt(value)}},
	}
	undo := block.TxUndo{{Address: "outside", Value: uint256.NewInt(value)}}
	return tx, undo
}

func applyBatch(tip block.HeaderHash, txs []*block.Tx, undos []block.TxUndo) block.OldestFirst {
	blk := block.AssembleMainBlock(block.SlotID{Epoch: 0, Slot: 10}, tip, 1, txs)
	return block.OldestFirst{{Block: blk, Undo: &block.Undo{Txs: undos}}}
}

func TestOnApplyBlocksScenario(t *testing.T) {
	env := newTestEnv(t)

	var tip0 block.HeaderHash
	tip0[0] = 1
	env.chain.tip = tip0
	env.addWallet(t, "w1", wallet.NewSyncedWith(tip0), "a1")

	tx1, undo1 := payment(0x01, "a1", 10)
	tx2, undo2 := payment(0x02, "a1", 20)
	batch := applyBatch(tip0, []*block.Tx{tx1, tx2}, []block.TxUndo{undo1, undo2})

	tr := &countingTracker{real: newRealTracker()}
	ops, err := env.listener(tr).OnApplyBlocks(batch)
	require.NoError(t, err)
	assert.Empty(t, ops)

	// the tracker ran exactly once for w1 with both triples in block order
	require.Equal(t, 1, tr.applyCalls)
	require.Len(t, tr.lastTriples, 2)
	assert.Equal(t, tx1, tr.lastTriples[0].Tx)
	assert.Equal(t, tx2, tr.lastTriples[1].Tx)

	snap := env.buffer.Snapshot("w1")
	require.NotNil(t, snap)
	assert.Len(t, snap.AddedUtxo, 2)
	assert.Len(t, snap.AddedHistory, 2)

	for _, event := range drainEvents(env.events) {
		assert.NotEqual(t, events.EventWalletSyncFailed, event.Type())
	}
}

// countingTracker wraps the real tracker and records invocations
type countingTracker struct {
	real        interfaces.TxTrackerInterface
	applyCalls  int
	lastTriples []block.TxTriple
}

func (c *countingTracker) ApplyTxs(key *keystore.WalletKey, addrs []block.Address, hi chain.HeaderInfoFn, txs []block.TxTriple) (*wallet.Modifier, error) {
	c.applyCalls++
	c.lastTriples = txs
	return c.real.ApplyTxs(key, addrs, hi, txs)
}

func (c *countingTracker) RollbackTxs(key *keystore.WalletKey, addrs []block.Address, hi chain.HeaderInfoFn, txs []block.TxTriple, slot block.SlotID) (*wallet.Modifier, error) {
	c.lastTriples = txs
	return c.real.RollbackTxs(key, addrs, hi, txs, slot)
}

func TestTipGuard(t *testing.T) {
	env := newTestEnv(t)

	var tip0, behindTip block.HeaderHash
	tip0[0] = 1
	behindTip[0] = 9
	env.chain.tip = tip0

	env.addWallet(t, "w-no-tip", nil, "a1")
	env.addWallet(t, "w-not-synced", wallet.NewNotSynced(), "a1")
	env.addWallet(t, "w-behind", wallet.NewSyncedWith(behindTip), "a1")
	env.addWallet(t, "w-ok", wallet.NewSyncedWith(tip0), "a1")

	tx, undo := payment(0x01, "a1", 10)
	batch := applyBatch(tip0, []*block.Tx{tx}, []block.TxUndo{undo})

	_, err := env.listener(newRealTracker()).OnApplyBlocks(batch)
	require.NoError(t, err)

	assert.NotNil(t, env.buffer.Snapshot("w-ok"))
	assert.Nil(t, env.buffer.Snapshot("w-no-tip"))
	assert.Nil(t, env.buffer.Snapshot("w-not-synced"))
	assert.Nil(t, env.buffer.Snapshot("w-behind"))

	var skipped, mismatched int
	for _, event := range drainEvents(env.events) {
		switch e := event.(type) {
		case *events.WalletSkipped:
			skipped++
		case *events.TipMismatch:
			mismatched++
			assert.Equal(t, "w-behind", e.WalletID())
		}
	}
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 1, mismatched)
}

func TestFailureIsolation(t *testing.T) {
	env := newTestEnv(t)

	var tip0 block.HeaderHash
	tip0[0] = 1
	env.chain.tip = tip0
	env.addWallet(t, "w1", wallet.NewSyncedWith(tip0), "a1")
	env.addWallet(t, "w2", wallet.NewSyncedWith(tip0), "a2")

	tx1, undo1 := payment(0x01, "a1", 10)
	tx2, undo2 := payment(0x02, "a2", 20)
	batch := applyBatch(tip0, []*block.Tx{tx1, tx2}, []block.TxUndo{undo1, undo2})

	tr := &failingTracker{inner: newRealTracker(), failFor: "w1"}
	_, err := env.listener(tr).OnApplyBlocks(batch)
	require.NoError(t, err)

	// w2 still got its merge
	assert.Nil(t, env.buffer.Snapshot("w1"))
	snap := env.buffer.Snapshot("w2")
	require.NotNil(t, snap)
	assert.Len(t, snap.AddedUtxo, 1)

	var failures []*events.WalletSyncFailed
	for _, event := range drainEvents(env.events) {
		if failed, ok := event.(*events.WalletSyncFailed); ok {
			failures = append(failures, failed)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, "w1", failures[0].WalletID())
	assert.Equal(t, OpApply, failures[0].Operation())
}

func TestApplyThenRollbackRestoresBuffer(t *testing.T) {
	env := newTestEnv(t)

	var tip0 block.HeaderHash
	tip0[0] = 1
	env.chain.tip = tip0
	env.addWallet(t, "w1", wallet.NewSyncedWith(tip0), "a1")

	tx, undo := payment(0x01, "a1", 10)
	batch := applyBatch(tip0, []*block.Tx{tx}, []block.TxUndo{undo})

	bl := env.listener(newRealTracker())
	_, err := bl.OnApplyBlocks(batch)
	require.NoError(t, err)
	require.NotNil(t, env.buffer.Snapshot("w1"))

	_, err = bl.OnRollbackBlocks(block.NewestFirst(batch))
	require.NoError(t, err)

	assert.Nil(t, env.buffer.Snapshot("w1"), "rollback of the same batch should cancel the buffered delta")
}

func TestRollbackDatesHistoryRemovalWithCurrentSlot(t *testing.T) {
	env := newTestEnv(t)

	var tip0 block.HeaderHash
	tip0[0] = 1
	env.chain.tip = tip0
	env.chain.slot = block.SlotID{Epoch: 3, Slot: 17}
	env.addWallet(t, "w1", wallet.NewSyncedWith(tip0), "a1")

	tx, undo := payment(0x01, "a1", 10)
	batch := applyBatch(tip0, []*block.Tx{tx}, []block.TxUndo{undo})

	_, err := env.listener(newRealTracker()).OnRollbackBlocks(block.NewestFirst(batch))
	require.NoError(t, err)

	snap := env.buffer.Snapshot("w1")
	require.NotNil(t, snap)
	slot, ok := snap.RemovedHistory[tx.ID()]
	require.True(t, ok)
	assert.Equal(t, env.chain.slot, slot)
}

func TestStructuralErrorAbortsBatch(t *testing.T) {
	env := newTestEnv(t)

	var tip0 block.HeaderHash
	tip0[0] = 1
	env.chain.tip = tip0
	env.addWallet(t, "w1", wallet.NewSyncedWith(tip0), "a1")

	tx, _ := payment(0x01, "a1", 10)
	blk := block.AssembleMainBlock(block.SlotID{Epoch: 0, Slot: 10}, tip0, 1, []*block.Tx{tx})
	// undo list deliberately empty: corrupted upstream data
	batch := block.OldestFirst{{Block: blk, Undo: &block.Undo{}}}

	_, err := env.listener(newRealTracker()).OnApplyBlocks(batch)
	require.ErrorIs(t, err, block.ErrBlundMismatch)
	assert.Nil(t, env.buffer.Snapshot("w1"))
}

func TestWatchdogWarnsWithoutCancelling(t *testing.T) {
	env := newTestEnv(t)
	env.chain.sd.SlotDuration = 40 * time.Millisecond // threshold 20ms

	var tip0 block.HeaderHash
	tip0[0] = 1
	env.chain.tip = tip0
	env.addWallet(t, "w1", wallet.NewSyncedWith(tip0), "a1")

	tx, undo := payment(0x01, "a1", 10)
	batch := applyBatch(tip0, []*block.Tx{tx}, []block.TxUndo{undo})

	tr := &slowTracker{inner: newRealTracker(), delay: 60 * time.Millisecond}
	_, err := env.listener(tr).OnApplyBlocks(batch)
	require.NoError(t, err)

	// the batch ran to completion despite exceeding the threshold
	require.NotNil(t, env.buffer.Snapshot("w1"))

	var slow *events.SlowBatch
	deadline := time.After(time.Second)
	for slow == nil {
		select {
		case event := <-env.events:
			if e, ok := event.(*events.SlowBatch); ok {
				slow = e
			}
		case <-deadline:
			t.Fatal("timeout waiting for slow batch warning")
		}
	}
	assert.Equal(t, OpApply, slow.Operation())
	assert.Equal(t, 20*time.Millisecond, slow.Threshold())
}
