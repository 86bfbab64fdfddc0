// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/ctc/util/arbmath"
	"github.com/offchainlabs/ctc/util/testhelpers"
)

// validSequencerBatch builds a batch the chain must accept: every sequenced
// context is stamped with the pending queue head it precedes, or with the
// current L1 position if the queue is drained. Sequenced transactions are
// dropped from contexts that would be stamped after the queue head the batch
// started with.
func validSequencerBatch(t *testing.T, chain *testChain, rng *testhelpers.PseudoRandomDataSource) *SequencerBatch {
	t.Helper()
	next := chain.GetNextQueueIndex()
	length := chain.GetQueueLength()
	var startHead *QueueElement
	if next < length {
		head, err := chain.GetQueueElement(next)
		Require(t, err)
		startHead = &head
	}
	numContexts := rng.GetUint64InRange(1, 3)
	var contexts []BatchContext
	var txs [][]byte
	for i := uint64(0); i < numContexts; i++ {
		context := BatchContext{
			NumSequencedTransactions:       rng.GetUint64InRange(0, 3),
			NumSubsequentQueueTransactions: rng.GetUint64InRange(0, arbmath.MinInt(2, length-next)),
			Timestamp:                      chain.l1.Timestamp(),
			BlockNumber:                    chain.l1.BlockNumber(),
		}
		if next < length {
			head, err := chain.GetQueueElement(next)
			Require(t, err)
			context.Timestamp = head.Timestamp
			context.BlockNumber = head.BlockNumber
		}
		if startHead != nil && (context.Timestamp > startHead.Timestamp || context.BlockNumber > startHead.BlockNumber) {
			context.NumSequencedTransactions = 0
		}
		for j := uint64(0); j < context.NumSequencedTransactions; j++ {
			txs = append(txs, rng.GetData(int(rng.GetUint64InRange(0, 200))))
		}
		next += context.NumSubsequentQueueTransactions
		contexts = append(contexts, context)
	}
	return newSequencerBatch(chain.GetTotalElements(), contexts, txs...)
}

func checkChainInvariants(t *testing.T, chain *testChain, previous ChainState, expectedElements uint64) {
	t.Helper()
	state := chain.State()
	if state.NextQueueIndex > chain.GetQueueLength() {
		Fail(t, "read pointer", state.NextQueueIndex, "past queue length", chain.GetQueueLength())
	}
	if state.TotalElements < state.NextQueueIndex {
		Fail(t, "fewer elements than absorbed queue elements", state)
	}
	if state.LastTimestamp < previous.LastTimestamp || state.LastBlockNumber < previous.LastBlockNumber {
		Fail(t, "last stamps decreased", previous, state)
	}
	if state.TotalElements != expectedElements {
		Fail(t, "total elements", state.TotalElements, "expected", expectedElements)
	}
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	chain := newTestChain(t)
	rng := testhelpers.NewPseudoRandomDataSource(t, 1)
	var expectedElements uint64
	previous := chain.State()

	for round := 0; round < 200; round++ {
		switch rng.GetUint64InRange(0, 3) {
		case 0:
			for i := rng.GetUint64InRange(1, 3); i > 0; i-- {
				gasLimit := rng.GetUint64InRange(TestConfig.MinTransactionGasLimit, TestConfig.MaxTransactionGasLimit)
				opts := &CallOpts{From: rng.GetAddress(), GasBudget: gasLimit / TestConfig.GasDiscountDivisor}
				_, err := chain.Enqueue(opts, rng.GetAddress(), gasLimit, rng.GetData(int(rng.GetUint64InRange(0, 300))))
				Require(t, err)
			}
		case 1:
			chain.l1.Advance(rng.GetUint64InRange(0, testPeriod/2), rng.GetUint64InRange(0, 3))
		case 2:
			forceable, err := chain.ForceableQueueElements(5)
			Require(t, err)
			if forceable > 0 {
				_, err = chain.AppendQueueBatch(&CallOpts{From: rng.GetAddress()}, forceable)
				Require(t, err)
				expectedElements += forceable
				break
			}
			batch := validSequencerBatch(t, chain, rng)
			_, err = chain.AppendSequencerBatch(sequencerOpts(), batch)
			if batch.TotalElementsToAppend == 0 {
				if !errors.Is(err, ErrEmptyAppend) {
					Fail(t, "expected ErrEmptyAppend, got", err)
				}
				break
			}
			Require(t, err, "round", round)
			expectedElements += batch.TotalElementsToAppend
		case 3:
			pending := chain.GetNumPendingQueueElements()
			if pending == 0 {
				break
			}
			count := rng.GetUint64InRange(1, pending)
			_, err := chain.AppendQueueBatch(sequencerOpts(), count)
			Require(t, err)
			expectedElements += count
		}
		checkChainInvariants(t, chain, previous, expectedElements)
		previous = chain.State()
	}

	// batch headers chain together and account for every element
	var prevCommitment common.Hash
	var total uint64
	for i := uint64(0); i < chain.GetTotalBatches(); i++ {
		header, err := chain.GetBatchHeader(i)
		Require(t, err)
		if header.PrevBatchCommitment != prevCommitment || header.PrevTotalElements != total {
			Fail(t, "batch", i, "does not extend its predecessor")
		}
		prevCommitment = header.Commitment()
		total += header.BatchSize
	}
	if prevCommitment != chain.GetChainCommitment() || total != chain.GetTotalElements() {
		Fail(t, "batch chain does not end at the chain state")
	}
}

func TestReopenChain(t *testing.T) {
	chain := newTestChain(t)
	chain.enqueueN(t, 4)
	batch := newSequencerBatch(0, []BatchContext{
		{NumSequencedTransactions: 2, NumSubsequentQueueTransactions: 3, Timestamp: testStartTimestamp, BlockNumber: testStartBlock},
	}, []byte{1}, []byte{2})
	_, err := chain.AppendSequencerBatch(sequencerOpts(), batch)
	Require(t, err)

	reopened := chain.reopen(t)
	if diff := cmp.Diff(chain.State(), reopened.State()); diff != "" {
		Fail(t, "reopened state differs:", diff)
	}
	if reopened.GetQueueLength() != 4 || reopened.GetNumPendingQueueElements() != 1 {
		Fail(t, "reopened queue", reopened.GetQueueLength(), reopened.GetNumPendingQueueElements())
	}
	for i := uint64(0); i < 4; i++ {
		original, err := chain.GetQueueElement(i)
		Require(t, err)
		loaded, err := reopened.GetQueueElement(i)
		Require(t, err)
		if diff := cmp.Diff(original, loaded); diff != "" {
			Fail(t, "queue element", i, diff)
		}
	}
	originalHeader, err := chain.GetBatchHeader(0)
	Require(t, err)
	loadedHeader, err := reopened.GetBatchHeader(0)
	Require(t, err)
	if diff := cmp.Diff(originalHeader, loadedHeader); diff != "" {
		Fail(t, "batch header", diff)
	}

	// the reopened chain continues where the original stopped
	_, err = reopened.AppendQueueBatch(sequencerOpts(), 1)
	Require(t, err)
	if reopened.GetTotalElements() != 6 || reopened.GetTotalBatches() != 2 {
		Fail(t, "reopened chain did not extend", reopened.State())
	}
}

func TestVerifyElementRejections(t *testing.T) {
	chain := newTestChain(t)
	chain.enqueueN(t, 3)
	_, err := chain.AppendQueueBatch(sequencerOpts(), 3)
	Require(t, err)

	var elements []ChainElement
	for i := uint64(0); i < 3; i++ {
		queued, err := chain.GetQueueElement(i)
		Require(t, err)
		elements = append(elements, ChainElement{
			IsFromQueue:    true,
			QueueIndex:     i,
			Timestamp:      queued.Timestamp,
			BlockNumber:    queued.BlockNumber,
			DataCommitment: queued.CommitmentHash,
		})
	}
	header, err := chain.GetBatchHeader(0)
	Require(t, err)
	proof, err := BuildElementProof(elements, 1)
	Require(t, err)
	require.NoError(t, chain.VerifyElement(elements[1], header, *proof))

	require.ErrorIs(t, chain.VerifyElement(elements[0], header, *proof), ErrInvalidElementProof)

	wrongIndex := *proof
	wrongIndex.Index = 5
	require.ErrorIs(t, chain.VerifyElement(elements[1], header, wrongIndex), ErrInvalidElementProof)

	forged := header
	forged.BatchRoot = testhelpers.RandomHash()
	require.ErrorIs(t, chain.VerifyElement(elements[1], forged, *proof), ErrInvalidBatchHeader)

	missing := header
	missing.BatchIndex = 1
	require.ErrorIs(t, chain.VerifyElement(elements[1], missing, *proof), ErrInvalidBatchHeader)

	_, err = BuildElementProof(elements, 3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEventsPublishedInCommitOrder(t *testing.T) {
	chain := newTestChain(t)
	enqueued := make(chan *TransactionEnqueued, 64)
	sub := chain.SubscribeTransactionEnqueued(enqueued)
	defer sub.Unsubscribe()

	const workers = 4
	const perWorker = 8
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				if _, err := chain.Enqueue(userOpts(), testTarget, 500_000, nil); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}()
	}
	for w := 0; w < workers; w++ {
		Require(t, <-errs)
	}
	for i := uint64(0); i < workers*perWorker; i++ {
		ev := <-enqueued
		if ev.QueueIndex != i {
			Fail(t, "event for queue index", ev.QueueIndex, "delivered at position", i)
		}
	}
}

func TestSubscriberReadsChainState(t *testing.T) {
	chain := newTestChain(t)
	enqueued := make(chan *TransactionEnqueued)
	sub := chain.SubscribeTransactionEnqueued(enqueued)
	defer sub.Unsubscribe()

	const workers = 4
	const perWorker = 20
	handled := make(chan error, 1)
	go func() {
		for i := uint64(0); i < workers*perWorker; i++ {
			ev := <-enqueued
			if ev.QueueIndex != i {
				handled <- fmt.Errorf("event for queue index %d delivered at position %d", ev.QueueIndex, i)
				return
			}
			element, err := chain.GetQueueElement(ev.QueueIndex)
			if err != nil {
				handled <- err
				return
			}
			if element.CommitmentHash != HashQueueTransaction(ev.Sender, ev.Target, ev.GasLimit, ev.Data) {
				handled <- fmt.Errorf("queue element %d does not match its event", i)
				return
			}
			chain.GetTotalElements()
		}
		handled <- nil
	}()

	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				if _, err := chain.Enqueue(userOpts(), testTarget, 500_000, []byte{byte(i)}); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}()
	}
	timeout := time.After(10 * time.Second)
	for w := 0; w < workers; w++ {
		select {
		case err := <-errs:
			Require(t, err)
		case <-timeout:
			Fail(t, "enqueuers did not finish")
		}
	}
	select {
	case err := <-handled:
		Require(t, err)
	case <-timeout:
		Fail(t, "subscriber did not receive every event")
	}
}

func TestSlowSubscriberDoesNotBlockChain(t *testing.T) {
	chain := newTestChain(t)
	enqueued := make(chan *TransactionEnqueued)
	sub := chain.SubscribeTransactionEnqueued(enqueued)
	defer sub.Unsubscribe()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := chain.Enqueue(userOpts(), testTarget, 500_000, nil)
			done <- err
		}()
	}
	// nobody receives yet, but both mutations commit and reads go through
	require.Eventually(t, func() bool {
		return chain.GetQueueLength() == 2
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, uint64(0), chain.GetTotalElements())
	_, err := chain.GetQueueElement(1)
	require.NoError(t, err)

	for i := uint64(0); i < 2; i++ {
		select {
		case ev := <-enqueued:
			require.Equal(t, i, ev.QueueIndex)
		case <-time.After(5 * time.Second):
			Fail(t, "event", i, "not delivered")
		}
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, <-done)
	}
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig
	Require(t, config.Validate())

	config.GasDiscountDivisor = 0
	if config.Validate() == nil {
		Fail(t, "zero divisor accepted")
	}
	config = DefaultConfig
	config.ForceInclusionPeriod = 0
	if config.Validate() == nil {
		Fail(t, "zero force inclusion period accepted")
	}
	config = DefaultConfig
	config.MaxTransactionGasLimit = config.MinTransactionGasLimit - 1
	if config.Validate() == nil {
		Fail(t, "max gas limit below min accepted")
	}
	config = DefaultConfig
	config.MaxTransactionGasLimit = 0
	Require(t, config.Validate())
}

func TestForceInclusionPolicy(t *testing.T) {
	policy := ForceInclusionPolicy{Period: testPeriod}
	head := &QueueElement{Timestamp: testStartTimestamp}
	stranger := testhelpers.RandomAddress()

	require.NoError(t, policy.Authorize(testSequencer, testSequencer, nil, testStartTimestamp))
	require.NoError(t, policy.Authorize(testSequencer, testSequencer, head, testStartTimestamp))
	require.ErrorIs(t, policy.Authorize(stranger, testSequencer, nil, testStartTimestamp+10*testPeriod), ErrUnauthorized)
	require.ErrorIs(t, policy.Authorize(stranger, testSequencer, head, testStartTimestamp+testPeriod), ErrUnauthorized)
	require.NoError(t, policy.Authorize(stranger, testSequencer, head, testStartTimestamp+testPeriod+1))
	// a missing sequencer must not authorize the zero address
	require.ErrorIs(t, policy.Authorize(common.Address{}, common.Address{}, head, testStartTimestamp), ErrUnauthorized)
	require.False(t, policy.HeadIsForceable(head, testStartTimestamp-1))
}
