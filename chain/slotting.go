package chain

import (
	"time"

	"github.com/Hxucaa/cardano-sl/block"
)

// SlottingData describes the chain's slot timing
type SlottingData struct {
	SystemStart  time.Time     `json:"system_start"`
	SlotDuration time.Duration `json:"slot_duration"`
	EpochSlots   uint64        `json:"epoch_slots"`
}

// SlotStart returns the wall-clock start of a slot
func (sd SlottingData) SlotStart(slot block.SlotID) time.Time {
	flat := slot.Flatten(sd.EpochSlots)
	return sd.SystemStart.Add(time.Duration(flat) * sd.SlotDuration)
}

// SlotAt returns the slot containing the given wall-clock instant.
// Instants before system start map to the first slot.
func (sd SlottingData) SlotAt(t time.Time) block.SlotID {
	elapsed := t.Sub(sd.SystemStart)
	if elapsed < 0 {
		return block.SlotID{}
	}
	flat := uint64(elapsed / sd.SlotDuration)
	return block.UnflattenSlot(flat, sd.EpochSlots)
}
