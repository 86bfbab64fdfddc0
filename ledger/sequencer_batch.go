// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/offchainlabs/ctc/util/arbmath"
)

// AppendSequencerBatch appends a batch of sequenced transactions interleaved
// with queue elements, as laid out by the batch's contexts. Only the
// registered sequencer may call it.
func (c *CanonicalChain) AppendSequencerBatch(opts *CallOpts, batch *SequencerBatch) (*Receipt, error) {
	if opts == nil {
		return nil, ErrMissingCallOpts
	}
	if batch == nil {
		return nil, ErrNoContexts
	}
	return c.mutate(func() (*chainUpdate, error) {
		sequencer, err := c.sequencer()
		if err != nil {
			return nil, errors.Wrapf(ErrUnauthorized, "resolving sequencer: %v", err)
		}
		if opts.From != sequencer {
			return nil, errors.Wrapf(ErrUnauthorized, "%v is not the sequencer", opts.From)
		}
		if batch.ShouldStartAtElement != c.state.TotalElements {
			return nil, errors.Wrapf(ErrStaleStart, "batch starts at %d, chain has %d elements", batch.ShouldStartAtElement, c.state.TotalElements)
		}
		if len(batch.Contexts) == 0 {
			return nil, ErrNoContexts
		}
		if batch.TotalElementsToAppend == 0 {
			return nil, ErrEmptyAppend
		}

		now := c.l1.Timestamp()
		currentBlock := c.l1.BlockNumber()
		head, err := c.queueHead()
		if err != nil {
			return nil, err
		}
		if c.policy.HeadIsForceable(head, now) {
			return nil, errors.Wrapf(ErrQueueElementPending, "queue element %d enqueued at %d", c.state.NextQueueIndex, head.Timestamp)
		}
		if head != nil {
			for _, context := range batch.Contexts {
				if context.NumSequencedTransactions == 0 {
					continue
				}
				if err := checkBelowQueueElement(&context, head); err != nil {
					return nil, err
				}
				break
			}
		}

		update := c.newUpdate()
		builder := newBatchBuilder(&update.state)
		nextQueueIndex := update.state.NextQueueIndex
		lastTimestamp := update.state.LastTimestamp
		lastBlockNumber := update.state.LastBlockNumber
		var txIndex uint64
		var consumed uint64
		for i, context := range batch.Contexts {
			if context.NumSequencedTransactions > 0 {
				if context.Timestamp < lastTimestamp {
					return nil, errors.Wrapf(ErrTimestampDecreasing, "context %d timestamp %d, last %d", i, context.Timestamp, lastTimestamp)
				}
				if context.BlockNumber < lastBlockNumber {
					return nil, errors.Wrapf(ErrBlockHeightDecreasing, "context %d block %d, last %d", i, context.BlockNumber, lastBlockNumber)
				}
				if context.Timestamp > now || context.BlockNumber > currentBlock {
					return nil, errors.Wrapf(ErrContextInFuture, "context %d at (%d, %d), L1 at (%d, %d)", i, context.Timestamp, context.BlockNumber, now, currentBlock)
				}
				if nextQueueIndex < update.queueLength {
					pending, err := c.getQueueElementImpl(nextQueueIndex)
					if err != nil {
						return nil, err
					}
					if err := checkBelowQueueElement(&context, &pending); err != nil {
						return nil, errors.Wrapf(err, "context %d", i)
					}
				}
				if context.NumSequencedTransactions > uint64(len(batch.Transactions))-txIndex {
					return nil, errors.Wrapf(ErrElementCountMismatch, "context %d needs %d transactions, %d left", i, context.NumSequencedTransactions, uint64(len(batch.Transactions))-txIndex)
				}
				for j := uint64(0); j < context.NumSequencedTransactions; j++ {
					builder.add(ChainElement{
						Timestamp:      context.Timestamp,
						BlockNumber:    context.BlockNumber,
						DataCommitment: HashSequencerTransaction(batch.Transactions[txIndex]),
					})
					txIndex++
				}
				lastTimestamp = context.Timestamp
				lastBlockNumber = context.BlockNumber
			}

			if context.NumSubsequentQueueTransactions > update.queueLength-nextQueueIndex {
				return nil, errors.Wrapf(ErrIndexOutOfRange, "context %d pulls %d queue elements, %d pending", i, context.NumSubsequentQueueTransactions, update.queueLength-nextQueueIndex)
			}
			for j := uint64(0); j < context.NumSubsequentQueueTransactions; j++ {
				element, err := c.getQueueElementImpl(nextQueueIndex)
				if err != nil {
					return nil, err
				}
				builder.add(ChainElement{
					IsFromQueue:    true,
					QueueIndex:     nextQueueIndex,
					Timestamp:      element.Timestamp,
					BlockNumber:    element.BlockNumber,
					DataCommitment: element.CommitmentHash,
				})
				lastTimestamp = element.Timestamp
				lastBlockNumber = element.BlockNumber
				nextQueueIndex++
			}
			consumed = arbmath.SaturatingUAdd(consumed, context.NumElements())
		}
		if txIndex != uint64(len(batch.Transactions)) || consumed != batch.TotalElementsToAppend {
			return nil, errors.Wrapf(ErrElementCountMismatch, "contexts hold %d elements and %d of %d transactions, batch claims %d",
				consumed, txIndex, len(batch.Transactions), batch.TotalElementsToAppend)
		}

		numQueueElements := nextQueueIndex - update.state.NextQueueIndex
		update.state.NextQueueIndex = nextQueueIndex
		update.state.LastTimestamp = lastTimestamp
		update.state.LastBlockNumber = lastBlockNumber
		update.events = append(update.events, &SequencerBatchAppended{
			StartIndex:    update.state.TotalElements,
			Count:         builder.size(),
			TotalElements: update.state.TotalElements + builder.size(),
		})
		update.appendBatch(builder)
		log.Info("appended sequencer batch", "batch", update.header.BatchIndex, "elements", update.header.BatchSize,
			"sequenced", txIndex, "queued", numQueueElements, "contexts", len(batch.Contexts))
		return update, nil
	})
}

// checkBelowQueueElement rejects a context that would order sequenced
// transactions after a queue element they precede.
func checkBelowQueueElement(context *BatchContext, element *QueueElement) error {
	if context.Timestamp > element.Timestamp {
		return errors.Wrapf(ErrTimestampTooHigh, "timestamp %d, pending queue element at %d", context.Timestamp, element.Timestamp)
	}
	if context.BlockNumber > element.BlockNumber {
		return errors.Wrapf(ErrBlockHeightTooHigh, "block %d, pending queue element at %d", context.BlockNumber, element.BlockNumber)
	}
	return nil
}
