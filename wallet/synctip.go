package wallet

import (
	"fmt"

	"github.com/Hxucaa/cardano-sl/block"
)

// WalletID is an opaque identifier of a tracked wallet
type WalletID string

// SyncTipKind discriminates the per-wallet sync states
type SyncTipKind int

const (
	// SyncTipNotSynced marks a wallet that was never initialized
	SyncTipNotSynced SyncTipKind = iota

	// SyncTipSyncedWith marks a wallet consistent exactly up to SyncTip.Tip
	SyncTipSyncedWith
)

// SyncTip is a wallet's recorded last-consistent chain position.
// The sync core reads it and never writes it; transitions happen only in
// the flush step.
type SyncTip struct {
	Kind SyncTipKind      `json:"kind"`
	Tip  block.HeaderHash `json:"tip"`
}

// NewNotSynced returns the never-initialized sync state
func NewNotSynced() *SyncTip {
	return &SyncTip{Kind: SyncTipNotSynced}
}

// NewSyncedWith returns a sync state pinned to the given tip
func NewSyncedWith(tip block.HeaderHash) *SyncTip {
	return &SyncTip{Kind: SyncTipSyncedWith, Tip: tip}
}

func (st *SyncTip) String() string {
	if st == nil {
		return "<no sync tip>"
	}
	if st.Kind == SyncTipNotSynced {
		return "not synced"
	}
	return fmt.Sprintf("synced with %s", st.Tip.Short())
}
