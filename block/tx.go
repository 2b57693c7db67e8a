package block

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"
)

// TxIn references the output it spends
type TxIn struct {
	TxID  TxID   `json:"tx_id"`
	Index uint32 `json:"index"`
}

// TxOut is a value sent to an address
type TxOut struct {
	Address Address      `json:"address"`
	Value   *uint256.Int `json:"value"`
}

// Tx is a transfer of value between addresses
type Tx struct {
	Inputs  []TxIn  `json:"inputs"`
	Outputs []TxOut `json:"outputs"`
}

// ID returns the transaction hash
func (t *Tx) ID() TxID {
	h, _ := blake2b.New256(nil)
	buf := make([]byte, 8)
	for _, in := range t.Inputs {
		h.Write(in.TxID[:])
		binary.BigEndian.PutUint32(buf[:4], in.Index)
		h.Write(buf[:4])
	}
	for _, out := range t.Outputs {
		h.Write([]byte(out.Address))
		if out.Value != nil {
			v := out.Value.Bytes32()
			h.Write(v[:])
		}
	}
	var id TxID
	copy(id[:], h.Sum(nil))
	return id
}

// TxUndo holds the outputs consumed by a transaction's inputs, positionally:
// TxUndo[i] is the output spent by Tx.Inputs[i]
type TxUndo []TxOut

// Undo is per-block rollback data, one TxUndo per transaction in block order
type Undo struct {
	Txs []TxUndo `json:"txs"`
}
