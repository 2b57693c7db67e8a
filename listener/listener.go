package listener

import (
	"fmt"
	"time"

	"github.com/Hxucaa/cardano-sl/block"
	"github.com/Hxucaa/cardano-sl/chain"
	"github.com/Hxucaa/cardano-sl/db"
	"github.com/Hxucaa/cardano-sl/events"
	"github.com/Hxucaa/cardano-sl/interfaces"
	"github.com/Hxucaa/cardano-sl/keystore"
	"github.com/Hxucaa/cardano-sl/logx"
	"github.com/Hxucaa/cardano-sl/utils"
	"github.com/Hxucaa/cardano-sl/wallet"
)

const (
	// OpApply tags forward batch processing in logs and reports
	OpApply = "apply"

	// OpRollback tags reorg rollback processing in logs and reports
	OpRollback = "rollback"
)

// BlockListener keeps the per-wallet derived state buffer in step with the
// canonical chain as block batches are applied or rolled back. Callers must
// serialize OnApplyBlocks/OnRollbackBlocks and hold the chain lock for the
// duration of each call so the tip stays stable.
type BlockListener struct {
	chain    chain.Reader
	wallets  wallet.Store
	keys     keystore.KeyStore
	tracker  interfaces.TxTrackerInterface
	buffer   *wallet.StorageModifier
	eventBus *events.EventBus
}

// NewBlockListener wires the listener to its collaborators. eventBus may be
// nil; reports then only reach the log.
func NewBlockListener(
	chainReader chain.Reader,
	wallets wallet.Store,
	keys keystore.KeyStore,
	txTracker interfaces.TxTrackerInterface,
	buffer *wallet.StorageModifier,
	eventBus *events.EventBus,
) *BlockListener {
	return &BlockListener{
		chain:    chainReader,
		wallets:  wallets,
		keys:     keys,
		tracker:  txTracker,
		buffer:   buffer,
		eventBus: eventBus,
	}
}

// OnApplyBlocks processes an oldest-first batch of applied blunds, merging
// each eligible wallet's forward delta into the shared buffer. The returned
// op list is always empty: accumulation is in-memory and persistence is the
// flush step's job.
func (l *BlockListener) OnApplyBlocks(batch block.OldestFirst) ([]db.BatchOp, error) {
	done := l.startWatchdog(OpApply)
	defer done()

	triples, err := batch.Flatten()
	if err != nil {
		return nil, err
	}

	headerInfo, err := l.headerIndex(batch)
	if err != nil {
		return nil, err
	}
	tip, err := l.chain.GetTip()
	if err != nil {
		return nil, fmt.Errorf("%s: could not get chain tip: %w", OpApply, err)
	}
	ids, err := l.wallets.WalletIDs()
	if err != nil {
		return nil, fmt.Errorf("%s: could not list wallets: %w", OpApply, err)
	}

	logx.Info("LISTENER", fmt.Sprintf("Applying %d blocks (%d txs) for %d wallets at tip %s",
		len(batch), len(triples), len(ids), tip.Short()))

	for _, id := range ids {
		l.syncWallet(id, OpApply, tip, func(key *keystore.WalletKey, addrs []block.Address) (*wallet.Modifier, error) {
			return l.tracker.ApplyTxs(key, addrs, headerInfo, triples)
		})
	}

	return nil, nil
}

// OnRollbackBlocks processes a newest-first batch of rolled back blunds,
// merging each eligible wallet's inverse delta into the shared buffer.
// The tip read here is the post-rollback tip.
func (l *BlockListener) OnRollbackBlocks(batch block.NewestFirst) ([]db.BatchOp, error) {
	done := l.startWatchdog(OpRollback)
	defer done()

	triples, err := batch.Flatten()
	if err != nil {
		return nil, err
	}

	headerInfo, err := l.headerIndex(batch)
	if err != nil {
		return nil, err
	}
	tip, err := l.chain.GetTip()
	if err != nil {
		return nil, fmt.Errorf("%s: could not get chain tip: %w", OpRollback, err)
	}
	// rolled back history entries lose their block context, so removals
	// are dated with the slot the rollback happened in
	currentSlot, err := l.chain.CurrentSlot()
	if err != nil {
		return nil, fmt.Errorf("%s: could not get current slot: %w", OpRollback, err)
	}
	ids, err := l.wallets.WalletIDs()
	if err != nil {
		return nil, fmt.Errorf("%s: could not list wallets: %w", OpRollback, err)
	}

	logx.Info("LISTENER", fmt.Sprintf("Rolling back %d blocks (%d txs) for %d wallets at tip %s",
		len(batch), len(triples), len(ids), tip.Short()))

	for _, id := range ids {
		l.syncWallet(id, OpRollback, tip, func(key *keystore.WalletKey, addrs []block.Address) (*wallet.Modifier, error) {
			return l.tracker.RollbackTxs(key, addrs, headerInfo, triples, currentSlot)
		})
	}

	return nil, nil
}

// syncWallet runs the tip guard and the modifier aggregation for one wallet.
// Any failure is reported and contained here; the remaining wallets in the
// batch still process.
func (l *BlockListener) syncWallet(
	id wallet.WalletID,
	op string,
	tip block.HeaderHash,
	compute func(*keystore.WalletKey, []block.Address) (*wallet.Modifier, error),
) {
	defer func() {
		if r := recover(); r != nil {
			l.reportFailure(id, op, fmt.Errorf("panic: %v", r))
		}
	}()

	meta, err := l.wallets.Get(id)
	if err != nil {
		l.reportFailure(id, op, err)
		return
	}

	var syncTip *wallet.SyncTip
	if meta != nil {
		syncTip = meta.SyncTip
	}
	if !l.tipEligible(id, op, syncTip, tip) {
		return
	}

	key, err := l.keys.LoadKey(id)
	if err != nil {
		l.reportFailure(id, op, err)
		return
	}

	mod, err := compute(key, meta.Addresses)
	if err != nil {
		l.reportFailure(id, op, err)
		return
	}
	if mod.IsEmpty() {
		logx.Debug("LISTENER", fmt.Sprintf("No changes for wallet %s in %s batch", id, op))
		return
	}

	l.buffer.MergeFor(id, mod)
	logx.Info("LISTENER", fmt.Sprintf("Buffered %s modifier for wallet %s: +%d/-%d utxo, +%d/-%d history",
		op, id, len(mod.AddedUtxo), len(mod.RemovedUtxo), len(mod.AddedHistory), len(mod.RemovedHistory)))
}

// tipEligible decides whether a wallet may be updated by this batch.
// Ineligibility is logged and reported, never raised.
func (l *BlockListener) tipEligible(id wallet.WalletID, op string, syncTip *wallet.SyncTip, tip block.HeaderHash) bool {
	switch {
	case syncTip == nil:
		logx.Info("LISTENER", fmt.Sprintf("Wallet %s has no sync tip, skipping %s", id, op))
		l.publish(events.NewWalletSkipped(string(id), op, "no sync tip"))
		return false
	case syncTip.Kind == wallet.SyncTipNotSynced:
		logx.Info("LISTENER", fmt.Sprintf("Wallet %s is not yet synced, skipping %s", id, op))
		l.publish(events.NewWalletSkipped(string(id), op, "not yet synced"))
		return false
	case syncTip.Tip != tip:
		logx.Warn("LISTENER", fmt.Sprintf("Wallet %s tip %s does not match current tip %s, skipping %s until resync",
			id, syncTip.Tip.Short(), tip.Short(), op))
		l.publish(events.NewTipMismatch(string(id), op, syncTip.Tip.String(), tip.String()))
		return false
	}
	return true
}

// startWatchdog arms a one-shot warning firing if the batch runs longer than
// half a slot. It only observes; the batch is never cancelled. The returned
// func disarms the timer.
func (l *BlockListener) startWatchdog(op string) func() {
	sd, err := l.chain.GetSlottingData()
	if err != nil {
		logx.Debug("LISTENER", fmt.Sprintf("No slotting data, %s batch runs unwatched: %v", op, err))
		return func() {}
	}

	threshold := sd.SlotDuration / 2
	start := time.Now()
	timer := time.AfterFunc(threshold, func() {
		logx.Warn("LISTENER", fmt.Sprintf("Batch %s still running after %s", op, threshold))
		l.publish(events.NewSlowBatch(op, threshold))
	})
	return func() {
		timer.Stop()
		logx.Debug("LISTENER", fmt.Sprintf("Batch %s finished in %.3fs", op, utils.SecondsBetween(start, time.Now())))
	}
}

func (l *BlockListener) headerIndex(blunds []*block.Blund) (chain.HeaderInfoFn, error) {
	sd, err := l.chain.GetSlottingData()
	if err != nil {
		return nil, fmt.Errorf("could not get slotting data: %w", err)
	}
	return chain.NewHeaderIndex(sd, block.Headers(blunds)), nil
}

func (l *BlockListener) reportFailure(id wallet.WalletID, op string, err error) {
	logx.Error("LISTENER", fmt.Sprintf("Failed to %s wallet %s: %v", op, id, err))
	l.publish(events.NewWalletSyncFailed(string(id), op, err.Error()))
}

func (l *BlockListener) publish(event events.SyncEvent) {
	if l.eventBus != nil {
		l.eventBus.Publish(event)
	}
}
