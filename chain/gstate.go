package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Hxucaa/cardano-sl/block"
	"github.com/Hxucaa/cardano-sl/db"
)

const (
	gsTipKey      = "gstate/tip"
	gsSlottingKey = "gstate/slotting"
)

var (
	// ErrNoTip is returned when GState has no recorded tip yet
	ErrNoTip = errors.New("gstate has no tip")

	// ErrNoSlottingData is returned when slotting data was never initialized
	ErrNoSlottingData = errors.New("gstate has no slotting data")
)

// GState is the derived chain state reader, persisted under a db provider.
// The block processing pipeline writes the tip; the wallet sync core reads.
type GState struct {
	mu         sync.RWMutex
	dbProvider db.DatabaseProvider
	now        func() time.Time
}

// NewGState creates a GState over the given provider
func NewGState(dbProvider db.DatabaseProvider) (*GState, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &GState{dbProvider: dbProvider, now: time.Now}, nil
}

// SetSlottingData stores the chain's slot timing parameters
func (g *GState) SetSlottingData(sd SlottingData) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	data, err := json.Marshal(sd)
	if err != nil {
		return fmt.Errorf("failed to marshal slotting data: %w", err)
	}
	if err := g.dbProvider.Put([]byte(gsSlottingKey), data); err != nil {
		return fmt.Errorf("failed to write slotting data to db: %w", err)
	}
	return nil
}

// GetSlottingData returns the stored slot timing parameters
func (g *GState) GetSlottingData() (SlottingData, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	data, err := g.dbProvider.Get([]byte(gsSlottingKey))
	if err != nil {
		return SlottingData{}, fmt.Errorf("could not get slotting data from db: %w", err)
	}
	if data == nil {
		return SlottingData{}, ErrNoSlottingData
	}

	var sd SlottingData
	if err := json.Unmarshal(data, &sd); err != nil {
		return SlottingData{}, fmt.Errorf("failed to unmarshal slotting data: %w", err)
	}
	return sd, nil
}

// GetSystemStart returns the chain's wall-clock origin
func (g *GState) GetSystemStart() (time.Time, error) {
	sd, err := g.GetSlottingData()
	if err != nil {
		return time.Time{}, err
	}
	return sd.SystemStart, nil
}

// SetTip records the current chain tip
func (g *GState) SetTip(tip block.HeaderHash) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.dbProvider.Put([]byte(gsTipKey), tip[:]); err != nil {
		return fmt.Errorf("failed to write tip to db: %w", err)
	}
	return nil
}

// GetTip returns the current chain tip
func (g *GState) GetTip() (block.HeaderHash, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	data, err := g.dbProvider.Get([]byte(gsTipKey))
	if err != nil {
		return block.HeaderHash{}, fmt.Errorf("could not get tip from db: %w", err)
	}
	if data == nil {
		return block.HeaderHash{}, ErrNoTip
	}

	var tip block.HeaderHash
	copy(tip[:], data)
	return tip, nil
}

// CurrentSlot returns the slot the wall clock is currently in
func (g *GState) CurrentSlot() (block.SlotID, error) {
	sd, err := g.GetSlottingData()
	if err != nil {
		return block.SlotID{}, err
	}
	return sd.SlotAt(g.now()), nil
}
