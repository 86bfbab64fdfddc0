// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

type LedgerEvent interface {
	IsLedgerEvent() bool // this method is just a marker that the type intends to be a LedgerEvent
}

type genericLedgerEvent struct{}

func (ev *genericLedgerEvent) IsLedgerEvent() bool { return true }

type TransactionEnqueued struct {
	genericLedgerEvent
	Sender     common.Address
	Target     common.Address
	GasLimit   uint64
	Data       []byte
	QueueIndex uint64
	Timestamp  uint64
}

// QueueBatchAppended reports Count queue elements, starting at queue index
// StartIndex, moved into the chain.
type QueueBatchAppended struct {
	genericLedgerEvent
	StartIndex    uint64
	Count         uint64
	TotalElements uint64
}

// SequencerBatchAppended reports Count elements appended by the sequencer,
// the first at chain position StartIndex.
type SequencerBatchAppended struct {
	genericLedgerEvent
	StartIndex    uint64
	Count         uint64
	TotalElements uint64
}

type TransactionBatchAppended struct {
	genericLedgerEvent
	BatchIndex          uint64
	BatchRoot           common.Hash
	BatchSize           uint64
	PrevTotalElements   uint64
	PrevBatchCommitment common.Hash
	Commitment          common.Hash
}

// Receipt lists the events of one successful mutation in emission order.
type Receipt struct {
	Events []LedgerEvent
}

type ledgerFeeds struct {
	enqueued       event.Feed
	queueBatch     event.Feed
	sequencerBatch event.Feed
	batch          event.Feed
}

func (f *ledgerFeeds) send(ev LedgerEvent) {
	switch ev := ev.(type) {
	case *TransactionEnqueued:
		f.enqueued.Send(ev)
	case *QueueBatchAppended:
		f.queueBatch.Send(ev)
	case *SequencerBatchAppended:
		f.sequencerBatch.Send(ev)
	case *TransactionBatchAppended:
		f.batch.Send(ev)
	}
}

func (c *CanonicalChain) SubscribeTransactionEnqueued(ch chan<- *TransactionEnqueued) event.Subscription {
	return c.feeds.enqueued.Subscribe(ch)
}

func (c *CanonicalChain) SubscribeQueueBatchAppended(ch chan<- *QueueBatchAppended) event.Subscription {
	return c.feeds.queueBatch.Subscribe(ch)
}

func (c *CanonicalChain) SubscribeSequencerBatchAppended(ch chan<- *SequencerBatchAppended) event.Subscription {
	return c.feeds.sequencerBatch.Subscribe(ch)
}

func (c *CanonicalChain) SubscribeTransactionBatchAppended(ch chan<- *TransactionBatchAppended) event.Subscription {
	return c.feeds.batch.Subscribe(ch)
}

// eventOutbox queues committed events until they are sent. Events are pushed
// under the chain's write lock, so the queue is in commit order. At most one
// caller drains it at a time.
type eventOutbox struct {
	mutex    sync.Mutex
	pending  []LedgerEvent
	draining bool
}

func (o *eventOutbox) push(events []LedgerEvent) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.pending = append(o.pending, events...)
}

// publishPending sends queued events unless another caller is already doing
// so, in which case that caller also sends the events queued here.
func (c *CanonicalChain) publishPending() {
	o := &c.outbox
	o.mutex.Lock()
	if o.draining {
		o.mutex.Unlock()
		return
	}
	o.draining = true
	for len(o.pending) > 0 {
		events := o.pending
		o.pending = nil
		o.mutex.Unlock()
		for _, ev := range events {
			countEvent(ev)
			c.feeds.send(ev)
		}
		o.mutex.Lock()
	}
	o.draining = false
	o.mutex.Unlock()
}
