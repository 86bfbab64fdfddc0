// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/offchainlabs/ctc/util/arbmath"
	"github.com/offchainlabs/ctc/util/testhelpers"
)

func TestHashQueueTransactionLayout(t *testing.T) {
	data := testhelpers.RandomSlice(45)
	var gasLimit uint64 = 500_000

	var expected []byte
	expected = append(expected, common.LeftPadBytes(testUser.Bytes(), 32)...)
	expected = append(expected, common.LeftPadBytes(testTarget.Bytes(), 32)...)
	expected = append(expected, common.LeftPadBytes([]byte{0x07, 0xa1, 0x20}, 32)...)
	expected = append(expected, common.LeftPadBytes([]byte{0x80}, 32)...)
	expected = append(expected, common.LeftPadBytes([]byte{45}, 32)...)
	expected = append(expected, common.RightPadBytes(data, 64)...)

	if HashQueueTransaction(testUser, testTarget, gasLimit, data) != crypto.Keccak256Hash(expected) {
		Fail(t, "queue transaction hash does not match abi encoding")
	}
	if HashQueueTransaction(testUser, testTarget, gasLimit, nil) != HashQueueTransaction(testUser, testTarget, gasLimit, []byte{}) {
		Fail(t, "nil and empty data hash differently")
	}
	if HashQueueTransaction(testTarget, testUser, gasLimit, data) == HashQueueTransaction(testUser, testTarget, gasLimit, data) {
		Fail(t, "sender and target are interchangeable")
	}
}

func TestHashChainElementLayout(t *testing.T) {
	commitment := testhelpers.RandomHash()
	element := ChainElement{
		IsFromQueue:    true,
		QueueIndex:     7,
		Timestamp:      testStartTimestamp,
		BlockNumber:    testStartBlock,
		DataCommitment: commitment,
	}
	word := func(x uint64) []byte {
		return common.LeftPadBytes(arbmath.UintToBytes(x), 32)
	}
	expected := crypto.Keccak256Hash([]byte{1}, word(7), word(testStartTimestamp), word(testStartBlock), commitment.Bytes())
	if HashChainElement(element) != expected {
		Fail(t, "chain element hash mismatch")
	}

	element.IsFromQueue = false
	expected = crypto.Keccak256Hash([]byte{0}, word(7), word(testStartTimestamp), word(testStartBlock), commitment.Bytes())
	if HashChainElement(element) != expected {
		Fail(t, "sequencer chain element hash mismatch")
	}
}
