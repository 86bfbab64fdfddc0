// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package merkletree

import (
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestEmptyTree(t *testing.T) {
	mt := NewEmptyMerkleTree()
	if mt.Hash() != (common.Hash{}) {
		t.Fatal(mt.Hash())
	}
	if mt.Size() != 0 {
		t.Fatal(mt.Size())
	}
	if mt.Prove(0) != nil {
		t.Fatal("proved a leaf of an empty tree")
	}
}

func TestSmallTrees(t *testing.T) {
	a := pseudorandomForTesting(0)
	b := pseudorandomForTesting(1)
	c := pseudorandomForTesting(2)
	leafA := crypto.Keccak256Hash(a.Bytes())
	leafB := crypto.Keccak256Hash(b.Bytes())
	leafC := crypto.Keccak256Hash(c.Bytes())

	mt := NewEmptyMerkleTree().Append(a)
	if mt.Hash() != leafA {
		t.Fatal("single leaf root mismatch")
	}
	mt = mt.Append(b)
	if mt.Hash() != crypto.Keccak256Hash(leafA.Bytes(), leafB.Bytes()) {
		t.Fatal("two leaf root mismatch")
	}
	mt = mt.Append(c)
	right := crypto.Keccak256Hash(leafC.Bytes(), common.Hash{}.Bytes())
	expected := crypto.Keccak256Hash(crypto.Keccak256Hash(leafA.Bytes(), leafB.Bytes()).Bytes(), right.Bytes())
	if mt.Hash() != expected {
		t.Fatal("three leaf root mismatch")
	}
	if mt.Capacity() != 4 || mt.Size() != 3 {
		t.Fatal(mt.Capacity(), mt.Size())
	}
}

func TestMerkleProofs(t *testing.T) {
	items := make([]common.Hash, 13)
	for i := range items {
		items[i] = pseudorandomForTesting(uint64(i))
	}

	tree := NewEmptyMerkleTree()
	for i, item := range items {
		tree = tree.Append(item)
		for j := 0; j <= i; j++ {
			proof := tree.Prove(uint64(j))
			if proof == nil {
				t.Fatal(j, tree.Capacity())
			}
			if proof.LeafHash != items[j] {
				t.Fatal(j)
			}
			if proof.RootHash != tree.Hash() {
				t.Fatal(j)
			}
			if !proof.IsCorrect() {
				t.Fatal(j, tree.Capacity(), len(proof.Proof))
			}
		}
		if tree.Prove(uint64(i+1)) != nil {
			t.Fatal("proved a leaf past the end")
		}
	}

	proof := tree.Prove(5)
	proof.LeafIndex = 6
	if proof.IsCorrect() {
		t.Fatal("proof accepted at the wrong index")
	}
}

func TestFromLeavesMatchesAppend(t *testing.T) {
	items := make([]common.Hash, 9)
	tree := NewEmptyMerkleTree()
	for i := range items {
		items[i] = pseudorandomForTesting(uint64(100 + i))
		tree = tree.Append(items[i])
	}
	if NewMerkleTreeFromLeaves(items).Hash() != tree.Hash() {
		t.Fatal("root mismatch")
	}
}

func pseudorandomForTesting(x uint64) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], x)
	return crypto.Keccak256Hash(buf[:])
}
