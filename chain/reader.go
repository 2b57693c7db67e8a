package chain

import (
	"time"

	"github.com/Hxucaa/cardano-sl/block"
)

// Reader exposes the canonical chain state the wallet sync core consults.
// Implementations must return a stable tip for the duration of a batch call;
// the chain-wide lock held by the caller guarantees that.
type Reader interface {
	// GetTip returns the current chain tip
	GetTip() (block.HeaderHash, error)

	// GetSlottingData returns the chain's slot timing parameters
	GetSlottingData() (SlottingData, error)

	// CurrentSlot returns the slot the wall clock is currently in
	CurrentSlot() (block.SlotID, error)
}

// HeaderInfo is the per-header metadata the wallet tracker needs to
// timestamp history entries
type HeaderInfo struct {
	Slot       block.SlotID
	Difficulty block.ChainDifficulty
	Timestamp  time.Time
}

// HeaderInfoFn resolves a header hash to its metadata, nil when unknown
type HeaderInfoFn func(block.HeaderHash) *HeaderInfo

// NewHeaderIndex builds a HeaderInfoFn over the given headers, computing
// each header's wall-clock timestamp from the slotting data
func NewHeaderIndex(sd SlottingData, headers []*block.Header) HeaderInfoFn {
	index := make(map[block.HeaderHash]*HeaderInfo, len(headers))
	for _, h := range headers {
		index[h.Hash] = &HeaderInfo{
			Slot:       h.Slot,
			Difficulty: h.Difficulty,
			Timestamp:  sd.SlotStart(h.Slot),
		}
	}
	return func(hash block.HeaderHash) *HeaderInfo {
		return index[hash]
	}
}
