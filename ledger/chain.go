// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/offchainlabs/ctc/util/containers"
)

// CanonicalChain is the ordered ledger of L2 transactions together with the
// queue of L1 transactions waiting to be included in it.
//
// Mutations hold the write lock for their whole duration. They validate
// against the current state, stage every write in a single database batch,
// and swap the in-memory state only once that batch is written. A rejected
// or failed mutation leaves both untouched.
type CanonicalChain struct {
	mutex       sync.RWMutex
	db          ethdb.Database
	config      Config
	resolver    AddressResolver
	l1          L1Reference
	policy      ForceInclusionPolicy
	state       ChainState
	queueLength uint64

	cacheMutex sync.Mutex
	queueCache *containers.LruCache[uint64, QueueElement]

	outbox eventOutbox
	feeds  ledgerFeeds
}

// NewCanonicalChain opens the chain stored in raw, initializing an empty one
// if none exists.
func NewCanonicalChain(raw ethdb.Database, config *Config, resolver AddressResolver, l1 L1Reference) (*CanonicalChain, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &CanonicalChain{
		db:         rawdb.NewTable(raw, ledgerPrefix),
		config:     *config,
		resolver:   resolver,
		l1:         l1,
		policy:     ForceInclusionPolicy{Period: config.forceInclusionSeconds()},
		queueCache: containers.NewLruCache[uint64, QueueElement](config.QueueCacheSize),
	}
	if err := c.initialize(); err != nil {
		return nil, err
	}
	updateStateMetrics(&c.state, c.queueLength)
	return c, nil
}

func (c *CanonicalChain) initialize() error {
	hasState, err := c.db.Has(chainStateKey)
	if err != nil {
		return err
	}
	if !hasState {
		batch := c.db.NewBatch()
		if err := putRlp(batch, chainStateKey, &c.state); err != nil {
			return err
		}
		if err := putRlp(batch, queueLengthKey, uint64(0)); err != nil {
			return err
		}
		log.Info("initialized empty canonical chain")
		return batch.Write()
	}
	if err := getRlp(c.db, chainStateKey, &c.state); err != nil {
		return errors.Wrap(err, "loading chain state")
	}
	if err := getRlp(c.db, queueLengthKey, &c.queueLength); err != nil {
		return errors.Wrap(err, "loading queue length")
	}
	if c.state.NextQueueIndex > c.queueLength || c.state.NextQueueIndex > c.state.TotalElements {
		return errors.Errorf("corrupt chain state: next queue index %d, queue length %d, total elements %d",
			c.state.NextQueueIndex, c.queueLength, c.state.TotalElements)
	}
	log.Info("loaded canonical chain", "elements", c.state.TotalElements, "batches", c.state.TotalBatches, "queueLength", c.queueLength)
	return nil
}

func putRlp(batch ethdb.KeyValueWriter, key []byte, val interface{}) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return batch.Put(key, data)
}

func getRlp(db ethdb.KeyValueReader, key []byte, val interface{}) error {
	data, err := db.Get(key)
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(data, val)
}

func (c *CanonicalChain) Config() Config {
	return c.config
}

// State returns a snapshot of the accumulator.
func (c *CanonicalChain) State() ChainState {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state
}

func (c *CanonicalChain) GetTotalElements() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state.TotalElements
}

func (c *CanonicalChain) GetTotalBatches() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state.TotalBatches
}

func (c *CanonicalChain) GetNextQueueIndex() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state.NextQueueIndex
}

func (c *CanonicalChain) GetLastTimestamp() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state.LastTimestamp
}

func (c *CanonicalChain) GetLastBlockNumber() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state.LastBlockNumber
}

// GetChainCommitment is the commitment of the latest batch, or zero if no
// batch was appended yet.
func (c *CanonicalChain) GetChainCommitment() common.Hash {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state.LastBatchCommitment
}

func (c *CanonicalChain) GetBatchHeader(index uint64) (BatchHeader, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.getBatchHeaderImpl(index)
}

func (c *CanonicalChain) getBatchHeaderImpl(index uint64) (BatchHeader, error) {
	if index >= c.state.TotalBatches {
		return BatchHeader{}, errors.Wrapf(ErrIndexOutOfRange, "batch %d of %d", index, c.state.TotalBatches)
	}
	var header BatchHeader
	if err := getRlp(c.db, dbKey(batchHeaderPrefix, index), &header); err != nil {
		return BatchHeader{}, errors.Wrapf(err, "reading batch header %d", index)
	}
	return header, nil
}

// VerifyElement checks that header is the stored header for its index and
// that element sits at proof.Index under its batch root.
func (c *CanonicalChain) VerifyElement(element ChainElement, header BatchHeader, proof ElementProof) error {
	stored, err := c.GetBatchHeader(header.BatchIndex)
	if errors.Is(err, ErrIndexOutOfRange) {
		return errors.Wrapf(ErrInvalidBatchHeader, "batch %d does not exist", header.BatchIndex)
	} else if err != nil {
		return err
	}
	if stored.Commitment() != header.Commitment() {
		return errors.Wrapf(ErrInvalidBatchHeader, "batch %d commitment mismatch", header.BatchIndex)
	}
	if !verifyElementAgainstRoot(element, &header, &proof) {
		return errors.Wrapf(ErrInvalidElementProof, "element %d of batch %d", proof.Index, header.BatchIndex)
	}
	return nil
}

// ForceableQueueElements counts the pending queue elements, starting at the
// head, that have waited out the force inclusion period, up to max.
func (c *CanonicalChain) ForceableQueueElements(max uint64) (uint64, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	now := c.l1.Timestamp()
	var count uint64
	for index := c.state.NextQueueIndex; index < c.queueLength && count < max; index++ {
		element, err := c.getQueueElementImpl(index)
		if err != nil {
			return 0, err
		}
		if !c.policy.HeadIsForceable(&element, now) {
			break
		}
		count++
	}
	return count, nil
}

func (c *CanonicalChain) sequencer() (common.Address, error) {
	return c.resolver.Resolve(c.config.SequencerName)
}

// queueHead is the oldest pending queue element, or nil if there is none.
func (c *CanonicalChain) queueHead() (*QueueElement, error) {
	if c.state.NextQueueIndex >= c.queueLength {
		return nil, nil
	}
	head, err := c.getQueueElementImpl(c.state.NextQueueIndex)
	if err != nil {
		return nil, err
	}
	return &head, nil
}

// chainUpdate is the staged result of a mutation that passed validation.
type chainUpdate struct {
	state       ChainState
	queueLength uint64
	enqueued    []QueueElement // appended at the old queue length
	header      *BatchHeader
	events      []LedgerEvent
}

func (c *CanonicalChain) newUpdate() *chainUpdate {
	return &chainUpdate{
		state:       c.state,
		queueLength: c.queueLength,
	}
}

// appendBatch records a finished batch in the update and advances the batch
// chain.
func (u *chainUpdate) appendBatch(builder *batchBuilder) {
	header := builder.finish()
	commitment := header.Commitment()
	u.header = &header
	u.state.TotalElements += header.BatchSize
	u.state.TotalBatches++
	u.state.LastBatchCommitment = commitment
	u.events = append(u.events, &TransactionBatchAppended{
		BatchIndex:          header.BatchIndex,
		BatchRoot:           header.BatchRoot,
		BatchSize:           header.BatchSize,
		PrevTotalElements:   header.PrevTotalElements,
		PrevBatchCommitment: header.PrevBatchCommitment,
		Commitment:          commitment,
	})
}

// commit writes the update in one batch and then swaps the in-memory state.
// Must be called with the write lock held.
func (c *CanonicalChain) commit(update *chainUpdate) error {
	batch := c.db.NewBatch()
	for i := range update.enqueued {
		if err := putRlp(batch, dbKey(queueElementPrefix, c.queueLength+uint64(i)), &update.enqueued[i]); err != nil {
			return err
		}
	}
	if update.queueLength != c.queueLength {
		if err := putRlp(batch, queueLengthKey, update.queueLength); err != nil {
			return err
		}
	}
	if update.header != nil {
		if err := putRlp(batch, dbKey(batchHeaderPrefix, update.header.BatchIndex), update.header); err != nil {
			return err
		}
	}
	if err := putRlp(batch, chainStateKey, &update.state); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "writing chain update")
	}

	c.cacheMutex.Lock()
	for i, element := range update.enqueued {
		c.queueCache.Add(c.queueLength+uint64(i), element)
	}
	c.cacheMutex.Unlock()
	c.state = update.state
	c.queueLength = update.queueLength
	updateStateMetrics(&c.state, c.queueLength)
	return nil
}

// mutate runs stage under the write lock, commits its update and publishes
// the resulting events in commit order. No lock is held while events are
// sent, so subscribers may query the chain from their handlers.
func (c *CanonicalChain) mutate(stage func() (*chainUpdate, error)) (*Receipt, error) {
	c.mutex.Lock()
	update, err := stage()
	if err == nil {
		err = c.commit(update)
	}
	if err != nil {
		c.mutex.Unlock()
		rejectedCounter.Inc(1)
		return nil, err
	}
	c.outbox.push(update.events)
	c.mutex.Unlock()
	c.publishPending()
	return &Receipt{Events: update.events}, nil
}
