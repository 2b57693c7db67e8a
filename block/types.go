package block

import (
	"encoding/hex"
	"fmt"
)

// HeaderHash identifies a chain position (the tip is a HeaderHash)
type HeaderHash [32]byte

func (h HeaderHash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns an abbreviated hash for log lines
func (h HeaderHash) Short() string {
	full := hex.EncodeToString(h[:])
	return full[:8]
}

// MarshalText encodes the hash as hex so JSON stays readable
func (h HeaderHash) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h[:])), nil
}

func (h *HeaderHash) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(decoded) != len(h) {
		return fmt.Errorf("invalid header hash length %d", len(decoded))
	}
	copy(h[:], decoded)
	return nil
}

// TxID is the hash of a transaction
type TxID [32]byte

func (id TxID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText encodes the id as hex so JSON stays readable
func (id TxID) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(id[:])), nil
}

func (id *TxID) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(decoded) != len(id) {
		return fmt.Errorf("invalid tx id length %d", len(decoded))
	}
	copy(id[:], decoded)
	return nil
}

// SlotID locates a slot within an epoch
type SlotID struct {
	Epoch uint64 `json:"epoch"`
	Slot  uint64 `json:"slot"`
}

func (s SlotID) String() string {
	return fmt.Sprintf("%d/%d", s.Epoch, s.Slot)
}

// Flatten converts the slot id into an absolute slot index
func (s SlotID) Flatten(epochSlots uint64) uint64 {
	return s.Epoch*epochSlots + s.Slot
}

// UnflattenSlot converts an absolute slot index back into a SlotID
func UnflattenSlot(flat, epochSlots uint64) SlotID {
	return SlotID{Epoch: flat / epochSlots, Slot: flat % epochSlots}
}

// ChainDifficulty is the cumulative main-block count up to a header
type ChainDifficulty uint64

// Address is an opaque wallet address
type Address string
