package wallet

import "sync"

// StorageModifier is the process-wide buffer of per-wallet modifiers awaiting
// persistence. All mutations go through Update, a single read-modify-write
// under the cell's mutex, so concurrent readers never observe a half-applied
// merge for a wallet. Per-wallet entries are independent; no other locking
// is needed.
type StorageModifier struct {
	mu      sync.Mutex
	entries map[WalletID]*Modifier
}

// NewStorageModifier returns an empty buffer
func NewStorageModifier() *StorageModifier {
	return &StorageModifier{entries: make(map[WalletID]*Modifier)}
}

// Update atomically read-modify-writes the entry for id using the pure
// update function. f receives the current modifier (nil when none is
// buffered) and returns the replacement; returning nil or an empty modifier
// clears the entry.
func (s *StorageModifier) Update(id WalletID, f func(cur *Modifier) *Modifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := f(s.entries[id])
	if next == nil || next.IsEmpty() {
		delete(s.entries, id)
		return
	}
	s.entries[id] = next
}

// MergeFor composes mod onto whatever is already buffered for id, in
// chronological order: previously buffered first, then mod
func (s *StorageModifier) MergeFor(id WalletID, mod *Modifier) {
	s.Update(id, func(cur *Modifier) *Modifier {
		if cur == nil {
			cur = NewModifier()
		}
		cur.Merge(mod)
		return cur
	})
}

// Snapshot returns a deep copy of the entry for id, nil when none is buffered
func (s *StorageModifier) Snapshot(id WalletID) *Modifier {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[id]
	if !ok {
		return nil
	}
	return cur.Clone()
}

// Drain removes and returns all buffered entries; the flush step calls this
func (s *StorageModifier) Drain() map[WalletID]*Modifier {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.entries
	s.entries = make(map[WalletID]*Modifier)
	return drained
}

// Len returns the number of wallets with buffered changes
func (s *StorageModifier) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
