package block

import (
	"errors"
	"fmt"
)

// ErrBlundMismatch signals a blund whose transaction and undo lists differ
// in length. That means corrupted upstream data, so the whole batch aborts.
var ErrBlundMismatch = errors.New("blund transaction/undo length mismatch")

// TxTriple is one transaction together with its undo data and owning header.
// The wallet tracker consumes triple sequences in exactly the order the
// flattener produced them.
type TxTriple struct {
	Tx     *Tx
	Undo   TxUndo
	Header *Header
}

// OldestFirst is a contiguous batch of blunds ordered oldest first,
// as handed to apply
type OldestFirst []*Blund

// NewestFirst is a contiguous batch of blunds ordered newest first,
// as handed to rollback
type NewestFirst []*Blund

// Flatten converts an apply batch into transaction triples in forward
// chain order: blocks oldest first, transactions in block order
func (batch OldestFirst) Flatten() ([]TxTriple, error) {
	var triples []TxTriple
	for _, blund := range batch {
		var err error
		triples, err = appendBlundTriples(triples, blund, false)
		if err != nil {
			return nil, err
		}
	}
	return triples, nil
}

// Flatten converts a rollback batch into transaction triples in backward
// chain order: blocks stay newest first as given, and each block's
// transactions are reversed so the most recent transaction comes first
func (batch NewestFirst) Flatten() ([]TxTriple, error) {
	var triples []TxTriple
	for _, blund := range batch {
		var err error
		triples, err = appendBlundTriples(triples, blund, true)
		if err != nil {
			return nil, err
		}
	}
	return triples, nil
}

func appendBlundTriples(triples []TxTriple, blund *Blund, reverse bool) ([]TxTriple, error) {
	blk := blund.Block
	if blk.IsGenesis() {
		// boundary blocks carry no transactions
		return triples, nil
	}

	var undos []TxUndo
	if blund.Undo != nil {
		undos = blund.Undo.Txs
	}
	if len(blk.Txs) != len(undos) {
		return nil, fmt.Errorf("%w: block %s has %d txs but %d undos",
			ErrBlundMismatch, blk.Header.Hash.Short(), len(blk.Txs), len(undos))
	}

	if reverse {
		for i := len(blk.Txs) - 1; i >= 0; i-- {
			triples = append(triples, TxTriple{Tx: blk.Txs[i], Undo: undos[i], Header: &blk.Header})
		}
		return triples, nil
	}
	for i := range blk.Txs {
		triples = append(triples, TxTriple{Tx: blk.Txs[i], Undo: undos[i], Header: &blk.Header})
	}
	return triples, nil
}

// Headers collects the batch's headers, used to build header lookups
func Headers(blunds []*Blund) []*Header {
	headers := make([]*Header, 0, len(blunds))
	for _, blund := range blunds {
		headers = append(headers, &blund.Block.Header)
	}
	return headers
}
