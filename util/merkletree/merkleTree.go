// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package merkletree

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MerkleTree is an append-only binary keccak tree. Leaves hash to
// keccak256(item), empty subtrees hash to zero and internal nodes hash to
// keccak256(left ‖ right). Trees are immutable; Append returns a new tree.
type MerkleTree interface {
	Hash() common.Hash
	Size() uint64
	Capacity() uint64
	Append(common.Hash) MerkleTree
	Prove(index uint64) *MerkleProof
	leaf(index uint64) common.Hash
	path(index uint64) []common.Hash
}

func NewEmptyMerkleTree() MerkleTree {
	return NewMerkleEmpty(0)
}

// NewMerkleTreeFromLeaves appends every item in order to an empty tree.
func NewMerkleTreeFromLeaves(items []common.Hash) MerkleTree {
	tree := NewEmptyMerkleTree()
	for _, item := range items {
		tree = tree.Append(item)
	}
	return tree
}

func prove(tree MerkleTree, index uint64) *MerkleProof {
	if index >= tree.Size() {
		return nil
	}
	return &MerkleProof{
		RootHash:  tree.Hash(),
		LeafHash:  tree.leaf(index),
		LeafIndex: index,
		Proof:     tree.path(index),
	}
}

type merkleTreeLeaf struct {
	hash common.Hash
}

func NewMerkleLeaf(hash common.Hash) MerkleTree {
	return &merkleTreeLeaf{hash}
}

func (leaf *merkleTreeLeaf) Hash() common.Hash {
	return crypto.Keccak256Hash(leaf.hash.Bytes())
}

func (leaf *merkleTreeLeaf) Size() uint64 {
	return 1
}

func (leaf *merkleTreeLeaf) Capacity() uint64 {
	return 1
}

func (leaf *merkleTreeLeaf) Append(newHash common.Hash) MerkleTree {
	return NewMerkleInternal(leaf, NewMerkleLeaf(newHash))
}

func (leaf *merkleTreeLeaf) Prove(index uint64) *MerkleProof {
	return prove(leaf, index)
}

func (leaf *merkleTreeLeaf) leaf(uint64) common.Hash {
	return leaf.hash
}

func (leaf *merkleTreeLeaf) path(uint64) []common.Hash {
	return nil
}

type merkleEmpty struct {
	capacity uint64
}

func NewMerkleEmpty(capacity uint64) MerkleTree {
	return &merkleEmpty{capacity}
}

func (me *merkleEmpty) Hash() common.Hash {
	return common.Hash{}
}

func (me *merkleEmpty) Size() uint64 {
	return 0
}

func (me *merkleEmpty) Capacity() uint64 {
	return me.capacity
}

func (me *merkleEmpty) Append(newHash common.Hash) MerkleTree {
	if me.capacity <= 1 {
		return NewMerkleLeaf(newHash)
	}
	halfSizeEmpty := NewMerkleEmpty(me.capacity / 2)
	return NewMerkleInternal(halfSizeEmpty.Append(newHash), halfSizeEmpty)
}

func (me *merkleEmpty) Prove(uint64) *MerkleProof {
	return nil
}

func (me *merkleEmpty) leaf(uint64) common.Hash {
	return common.Hash{}
}

func (me *merkleEmpty) path(uint64) []common.Hash {
	return nil
}

type merkleInternal struct {
	hash     common.Hash
	size     uint64
	capacity uint64
	left     MerkleTree
	right    MerkleTree
}

func NewMerkleInternal(left, right MerkleTree) MerkleTree {
	return &merkleInternal{
		crypto.Keccak256Hash(left.Hash().Bytes(), right.Hash().Bytes()),
		left.Size() + right.Size(),
		left.Capacity() + right.Capacity(),
		left,
		right,
	}
}

func (mi *merkleInternal) Hash() common.Hash {
	return mi.hash
}

func (mi *merkleInternal) Size() uint64 {
	return mi.size
}

func (mi *merkleInternal) Capacity() uint64 {
	return mi.capacity
}

func (mi *merkleInternal) Append(newHash common.Hash) MerkleTree {
	if mi.size == mi.capacity {
		return NewMerkleInternal(mi, NewMerkleEmpty(mi.capacity).Append(newHash))
	} else if 2*mi.size < mi.capacity {
		return NewMerkleInternal(mi.left.Append(newHash), mi.right)
	} else {
		return NewMerkleInternal(mi.left, mi.right.Append(newHash))
	}
}

func (mi *merkleInternal) Prove(index uint64) *MerkleProof {
	return prove(mi, index)
}

func (mi *merkleInternal) leaf(index uint64) common.Hash {
	half := mi.left.Capacity()
	if index < half {
		return mi.left.leaf(index)
	}
	return mi.right.leaf(index - half)
}

// path lists sibling hashes from the leaf level up to this node.
func (mi *merkleInternal) path(index uint64) []common.Hash {
	half := mi.left.Capacity()
	if index < half {
		return append(mi.left.path(index), mi.right.Hash())
	}
	return append(mi.right.path(index-half), mi.left.Hash())
}

type MerkleProof struct {
	RootHash  common.Hash
	LeafHash  common.Hash
	LeafIndex uint64
	Proof     []common.Hash
}

func (proof *MerkleProof) IsCorrect() bool {
	hash := crypto.Keccak256Hash(proof.LeafHash.Bytes())
	index := proof.LeafIndex
	for _, hashFromProof := range proof.Proof {
		if index&1 == 0 {
			hash = crypto.Keccak256Hash(hash.Bytes(), hashFromProof.Bytes())
		} else {
			hash = crypto.Keccak256Hash(hashFromProof.Bytes(), hash.Bytes())
		}
		index = index / 2
	}
	if index != 0 {
		return false
	}
	return hash == proof.RootHash
}
