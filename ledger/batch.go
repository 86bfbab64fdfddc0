// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/offchainlabs/ctc/util/arbmath"
	"github.com/offchainlabs/ctc/util/merkletree"
)

// BatchHeader summarizes one append. Every successful append produces
// exactly one batch, linked to its predecessor by PrevBatchCommitment.
type BatchHeader struct {
	BatchIndex          uint64
	BatchRoot           common.Hash
	BatchSize           uint64
	PrevTotalElements   uint64
	PrevBatchCommitment common.Hash
}

func (h *BatchHeader) Commitment() common.Hash {
	return crypto.Keccak256Hash(
		arbmath.Uint64ToU256Bytes(h.BatchIndex),
		h.BatchRoot.Bytes(),
		arbmath.Uint64ToU256Bytes(h.BatchSize),
		arbmath.Uint64ToU256Bytes(h.PrevTotalElements),
		h.PrevBatchCommitment.Bytes(),
	)
}

// ElementProof places a chain element at Index within a batch.
type ElementProof struct {
	Index    uint64
	Siblings []common.Hash
}

// BuildElementProof proves elements[index] against the root of a batch
// made of exactly these elements.
func BuildElementProof(elements []ChainElement, index uint64) (*ElementProof, error) {
	if index >= uint64(len(elements)) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "element %d of batch with %d elements", index, len(elements))
	}
	leaves := make([]common.Hash, len(elements))
	for i, element := range elements {
		leaves[i] = HashChainElement(element)
	}
	proof := merkletree.NewMerkleTreeFromLeaves(leaves).Prove(index)
	return &ElementProof{
		Index:    proof.LeafIndex,
		Siblings: proof.Proof,
	}, nil
}

func verifyElementAgainstRoot(element ChainElement, header *BatchHeader, proof *ElementProof) bool {
	if proof == nil || proof.Index >= header.BatchSize {
		return false
	}
	merkleProof := merkletree.MerkleProof{
		RootHash:  header.BatchRoot,
		LeafHash:  HashChainElement(element),
		LeafIndex: proof.Index,
		Proof:     proof.Siblings,
	}
	return merkleProof.IsCorrect()
}

// batchBuilder accumulates the elements of one append into a batch header.
type batchBuilder struct {
	header BatchHeader
	tree   merkletree.MerkleTree
}

func newBatchBuilder(state *ChainState) *batchBuilder {
	return &batchBuilder{
		header: BatchHeader{
			BatchIndex:          state.TotalBatches,
			PrevTotalElements:   state.TotalElements,
			PrevBatchCommitment: state.LastBatchCommitment,
		},
		tree: merkletree.NewEmptyMerkleTree(),
	}
}

func (b *batchBuilder) add(element ChainElement) {
	b.tree = b.tree.Append(HashChainElement(element))
}

func (b *batchBuilder) size() uint64 {
	return b.tree.Size()
}

func (b *batchBuilder) finish() BatchHeader {
	header := b.header
	header.BatchRoot = b.tree.Hash()
	header.BatchSize = b.tree.Size()
	return header
}
