// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// AppendQueueBatch moves the next count queue elements into the chain as a
// single batch. The sequencer may call it at any time; anyone else only once
// the oldest pending queue element has waited out the force inclusion period.
func (c *CanonicalChain) AppendQueueBatch(opts *CallOpts, count uint64) (*Receipt, error) {
	if opts == nil {
		return nil, ErrMissingCallOpts
	}
	return c.mutate(func() (*chainUpdate, error) {
		if count == 0 {
			return nil, ErrEmptyAppend
		}
		pending := c.queueLength - c.state.NextQueueIndex
		if count > pending {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "appending %d queue elements with %d pending", count, pending)
		}
		head, err := c.queueHead()
		if err != nil {
			return nil, err
		}
		sequencer, err := c.sequencer()
		if err != nil {
			log.Debug("no sequencer to authorize queue batch against", "err", err)
			sequencer = common.Address{}
		}
		if err := c.policy.Authorize(opts.From, sequencer, head, c.l1.Timestamp()); err != nil {
			return nil, err
		}

		update := c.newUpdate()
		builder := newBatchBuilder(&update.state)
		startIndex := update.state.NextQueueIndex
		for i := uint64(0); i < count; i++ {
			index := startIndex + i
			element, err := c.getQueueElementImpl(index)
			if err != nil {
				return nil, err
			}
			builder.add(ChainElement{
				IsFromQueue:    true,
				QueueIndex:     index,
				Timestamp:      element.Timestamp,
				BlockNumber:    element.BlockNumber,
				DataCommitment: element.CommitmentHash,
			})
			update.state.LastTimestamp = element.Timestamp
			update.state.LastBlockNumber = element.BlockNumber
		}
		update.state.NextQueueIndex += count
		update.events = append(update.events, &QueueBatchAppended{
			StartIndex:    startIndex,
			Count:         count,
			TotalElements: update.state.TotalElements + count,
		})
		update.appendBatch(builder)
		log.Info("appended queue batch", "batch", update.header.BatchIndex, "startQueueIndex", startIndex, "count", count, "caller", opts.From)
		return update, nil
	})
}
