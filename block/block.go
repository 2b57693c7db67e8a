package block

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Header identifies a block by slot and cumulative difficulty
type Header struct {
	Slot       SlotID          // Slot the block was produced in
	PrevHash   HeaderHash      // Hash of the preceding header
	Difficulty ChainDifficulty // Cumulative main-block count
	Genesis    bool            // Epoch-boundary block carrying no transactions
	Hash       HeaderHash      // Hash of this header (computed at assembly)
}

// Block is a chain unit: a genesis (epoch boundary) block with no
// transactions, or a main block carrying zero or more transactions
type Block struct {
	Header Header
	Txs    []*Tx
}

// AssembleMainBlock builds a main block and computes its header hash
func AssembleMainBlock(slot SlotID, prevHash HeaderHash, difficulty ChainDifficulty, txs []*Tx) *Block {
	b := &Block{
		Header: Header{
			Slot:       slot,
			PrevHash:   prevHash,
			Difficulty: difficulty,
		},
		Txs: txs,
	}
	b.Header.Hash = b.computeHash()
	return b
}

// AssembleGenesisBlock builds the boundary block opening an epoch
func AssembleGenesisBlock(epoch uint64, prevHash HeaderHash, difficulty ChainDifficulty) *Block {
	b := &Block{
		Header: Header{
			Slot:       SlotID{Epoch: epoch},
			PrevHash:   prevHash,
			Difficulty: difficulty,
			Genesis:    true,
		},
	}
	b.Header.Hash = b.computeHash()
	return b
}

func (b *Block) computeHash() HeaderHash {
	h, _ := blake2b.New256(nil)
	buf := make([]byte, 8)
	// Slot
	binary.BigEndian.PutUint64(buf, b.Header.Slot.Epoch)
	h.Write(buf)
	binary.BigEndian.PutUint64(buf, b.Header.Slot.Slot)
	h.Write(buf)
	// PrevHash
	h.Write(b.Header.PrevHash[:])
	// Difficulty
	binary.BigEndian.PutUint64(buf, uint64(b.Header.Difficulty))
	h.Write(buf)
	if b.Header.Genesis {
		h.Write([]byte{1})
	}
	for _, tx := range b.Txs {
		id := tx.ID()
		h.Write(id[:])
	}
	var out HeaderHash
	copy(out[:], h.Sum(nil))
	return out
}

// IsGenesis reports whether the block is an epoch boundary block
func (b *Block) IsGenesis() bool {
	return b.Header.Genesis
}

// Blund pairs a block with its undo data; the atomic unit moved across
// the apply/rollback boundary
type Blund struct {
	Block *Block
	Undo  *Undo
}
