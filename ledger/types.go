// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"github.com/ethereum/go-ethereum/common"
)

// QueueElement is a transaction submitted from L1, committed by hash.
type QueueElement struct {
	CommitmentHash common.Hash
	Timestamp      uint64
	BlockNumber    uint64
}

// ChainElement is one position of the canonical chain. Elements are never
// stored individually; only their hashes are folded into batch roots.
type ChainElement struct {
	IsFromQueue    bool
	QueueIndex     uint64
	Timestamp      uint64
	BlockNumber    uint64
	DataCommitment common.Hash
}

// BatchContext describes a run of sequenced transactions followed by a run
// of queue transactions.
type BatchContext struct {
	NumSequencedTransactions       uint64
	NumSubsequentQueueTransactions uint64
	Timestamp                      uint64
	BlockNumber                    uint64
}

func (c BatchContext) NumElements() uint64 {
	return c.NumSequencedTransactions + c.NumSubsequentQueueTransactions
}

type SequencerBatch struct {
	ShouldStartAtElement  uint64
	TotalElementsToAppend uint64
	Contexts              []BatchContext
	Transactions          [][]byte
}

// ChainState is everything the chain needs to validate the next append.
type ChainState struct {
	TotalElements       uint64
	NextQueueIndex      uint64
	LastTimestamp       uint64
	LastBlockNumber     uint64
	TotalBatches        uint64
	LastBatchCommitment common.Hash
}

// CallOpts identifies the caller of a mutating operation. GasBudget is the
// execution budget the caller brings along, spent on rate limiting enqueues.
type CallOpts struct {
	From      common.Address
	GasBudget uint64
}
