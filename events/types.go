package events

import (
	"time"
)

// EventType is an enum-like string type for wallet sync events
type EventType string

const (
	EventWalletSkipped    EventType = "WalletSkipped"
	EventTipMismatch      EventType = "TipMismatch"
	EventWalletSyncFailed EventType = "WalletSyncFailed"
	EventSlowBatch        EventType = "SlowBatch"
)

// SyncEvent represents any event emitted by the wallet sync core
type SyncEvent interface {
	Type() EventType
	Timestamp() time.Time
	WalletID() string
}

// WalletSkipped event when a wallet is ineligible for a batch update
// (no recorded sync tip, or never synced)
type WalletSkipped struct {
	walletID  string
	operation string
	reason    string
	timestamp time.Time
}

func NewWalletSkipped(walletID, operation, reason string) *WalletSkipped {
	return &WalletSkipped{
		walletID:  walletID,
		operation: operation,
		reason:    reason,
		timestamp: time.Now(),
	}
}

func (e *WalletSkipped) Type() EventType      { return EventWalletSkipped }
func (e *WalletSkipped) Timestamp() time.Time { return e.timestamp }
func (e *WalletSkipped) WalletID() string     { return e.walletID }
func (e *WalletSkipped) Operation() string    { return e.operation }
func (e *WalletSkipped) Reason() string       { return e.reason }

// TipMismatch event when a wallet's recorded tip diverges from the chain
// tip and the wallet needs a full resync
type TipMismatch struct {
	walletID  string
	operation string
	walletTip string
	chainTip  string
	timestamp time.Time
}

func NewTipMismatch(walletID, operation, walletTip, chainTip string) *TipMismatch {
	return &TipMismatch{
		walletID:  walletID,
		operation: operation,
		walletTip: walletTip,
		chainTip:  chainTip,
		timestamp: time.Now(),
	}
}

func (e *TipMismatch) Type() EventType      { return EventTipMismatch }
func (e *TipMismatch) Timestamp() time.Time { return e.timestamp }
func (e *TipMismatch) WalletID() string     { return e.walletID }
func (e *TipMismatch) Operation() string    { return e.operation }
func (e *TipMismatch) WalletTip() string    { return e.walletTip }
func (e *TipMismatch) ChainTip() string     { return e.chainTip }

// WalletSyncFailed event when one wallet's update fails inside a batch
type WalletSyncFailed struct {
	walletID  string
	operation string
	errMsg    string
	timestamp time.Time
}

func NewWalletSyncFailed(walletID, operation, errMsg string) *WalletSyncFailed {
	return &WalletSyncFailed{
		walletID:  walletID,
		operation: operation,
		errMsg:    errMsg,
		timestamp: time.Now(),
	}
}

func (e *WalletSyncFailed) Type() EventType      { return EventWalletSyncFailed }
func (e *WalletSyncFailed) Timestamp() time.Time { return e.timestamp }
func (e *WalletSyncFailed) WalletID() string     { return e.walletID }
func (e *WalletSyncFailed) Operation() string    { return e.operation }
func (e *WalletSyncFailed) ErrorMessage() string { return e.errMsg }

// SlowBatch event when a batch operation exceeds half a slot duration
type SlowBatch struct {
	operation string
	threshold time.Duration
	timestamp time.Time
}

func NewSlowBatch(operation string, threshold time.Duration) *SlowBatch {
	return &SlowBatch{
		operation: operation,
		threshold: threshold,
		timestamp: time.Now(),
	}
}

func (e *SlowBatch) Type() EventType          { return EventSlowBatch }
func (e *SlowBatch) Timestamp() time.Time     { return e.timestamp }
func (e *SlowBatch) WalletID() string         { return "" }
func (e *SlowBatch) Operation() string        { return e.operation }
func (e *SlowBatch) Threshold() time.Duration { return e.threshold }
