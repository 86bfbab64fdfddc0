// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// Enqueue appends an L1 transaction to the queue. The caller must bring
// gasLimit / GasDiscountDivisor of gas in opts.GasBudget, which is burned to
// rate limit the queue.
func (c *CanonicalChain) Enqueue(opts *CallOpts, target common.Address, gasLimit uint64, data []byte) (*Receipt, error) {
	if opts == nil {
		return nil, ErrMissingCallOpts
	}
	return c.mutate(func() (*chainUpdate, error) {
		if uint64(len(data)) > c.config.MaxTransactionSize {
			return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes, max %d", len(data), c.config.MaxTransactionSize)
		}
		if gasLimit < c.config.MinTransactionGasLimit {
			return nil, errors.Wrapf(ErrGasLimitTooLow, "gas limit %d, min %d", gasLimit, c.config.MinTransactionGasLimit)
		}
		if c.config.MaxTransactionGasLimit != 0 && gasLimit > c.config.MaxTransactionGasLimit {
			return nil, errors.Wrapf(ErrGasLimitTooHigh, "gas limit %d, max %d", gasLimit, c.config.MaxTransactionGasLimit)
		}
		gasToBurn := gasLimit / c.config.GasDiscountDivisor
		if opts.GasBudget < gasToBurn {
			return nil, errors.Wrapf(ErrInsufficientRateLimitBudget, "budget %d, need %d", opts.GasBudget, gasToBurn)
		}

		element := QueueElement{
			CommitmentHash: HashQueueTransaction(opts.From, target, gasLimit, data),
			Timestamp:      c.l1.Timestamp(),
			BlockNumber:    c.l1.BlockNumber(),
		}
		update := c.newUpdate()
		queueIndex := update.queueLength
		update.enqueued = append(update.enqueued, element)
		update.queueLength++
		update.events = append(update.events, &TransactionEnqueued{
			Sender:     opts.From,
			Target:     target,
			GasLimit:   gasLimit,
			Data:       common.CopyBytes(data),
			QueueIndex: queueIndex,
			Timestamp:  element.Timestamp,
		})
		log.Debug("enqueued transaction", "index", queueIndex, "sender", opts.From, "target", target, "gasLimit", gasLimit, "size", len(data))
		return update, nil
	})
}

func (c *CanonicalChain) GetQueueElement(index uint64) (QueueElement, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.getQueueElementImpl(index)
}

func (c *CanonicalChain) getQueueElementImpl(index uint64) (QueueElement, error) {
	if index >= c.queueLength {
		return QueueElement{}, errors.Wrapf(ErrIndexOutOfRange, "queue index %d, queue length %d", index, c.queueLength)
	}
	c.cacheMutex.Lock()
	element, ok := c.queueCache.Get(index)
	c.cacheMutex.Unlock()
	if ok {
		return element, nil
	}
	if err := getRlp(c.db, dbKey(queueElementPrefix, index), &element); err != nil {
		return QueueElement{}, errors.Wrapf(err, "reading queue element %d", index)
	}
	c.cacheMutex.Lock()
	c.queueCache.Add(index, element)
	c.cacheMutex.Unlock()
	return element, nil
}

func (c *CanonicalChain) GetQueueLength() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.queueLength
}

// GetNumPendingQueueElements is the number of queue elements not yet in the
// chain.
func (c *CanonicalChain) GetNumPendingQueueElements() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.queueLength - c.state.NextQueueIndex
}
