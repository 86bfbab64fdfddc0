// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/offchainlabs/ctc/util/arbmath"
)

var queueTransactionArguments abi.Arguments

func init() {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	queueTransactionArguments = abi.Arguments{
		{Name: "sender", Type: addressType},
		{Name: "target", Type: addressType},
		{Name: "gasLimit", Type: uint256Type},
		{Name: "data", Type: bytesType},
	}
}

// HashQueueTransaction commits to an enqueued transaction as
// keccak256(abi.encode(sender, target, gasLimit, data)).
func HashQueueTransaction(sender, target common.Address, gasLimit uint64, data []byte) common.Hash {
	if data == nil {
		data = []byte{}
	}
	encoded, err := queueTransactionArguments.Pack(sender, target, new(big.Int).SetUint64(gasLimit), data)
	if err != nil {
		// Only reachable if the argument types above disagree with the values.
		panic(err)
	}
	return crypto.Keccak256Hash(encoded)
}

// HashSequencerTransaction is the data commitment of a sequenced transaction.
func HashSequencerTransaction(tx []byte) common.Hash {
	return crypto.Keccak256Hash(tx)
}

// HashChainElement is the leaf committed into a batch root:
// keccak256(isFromQueue ‖ queueIndex ‖ timestamp ‖ blockNumber ‖ dataCommitment)
// with every integer as a 32 byte big-endian word.
func HashChainElement(element ChainElement) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{arbmath.BoolToByte(element.IsFromQueue)},
		arbmath.Uint64ToU256Bytes(element.QueueIndex),
		arbmath.Uint64ToU256Bytes(element.Timestamp),
		arbmath.Uint64ToU256Bytes(element.BlockNumber),
		element.DataCommitment.Bytes(),
	)
}
