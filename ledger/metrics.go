// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	totalElementsGauge    = metrics.NewRegisteredGauge("ctc/chain/elements", nil)
	totalBatchesGauge     = metrics.NewRegisteredGauge("ctc/chain/batches", nil)
	queueLengthGauge      = metrics.NewRegisteredGauge("ctc/queue/length", nil)
	pendingQueueGauge     = metrics.NewRegisteredGauge("ctc/queue/pending", nil)
	enqueuedCounter       = metrics.NewRegisteredCounter("ctc/queue/enqueued", nil)
	queueBatchCounter     = metrics.NewRegisteredCounter("ctc/batch/queue", nil)
	sequencerBatchCounter = metrics.NewRegisteredCounter("ctc/batch/sequencer", nil)
	rejectedCounter       = metrics.NewRegisteredCounter("ctc/rejected", nil)
)

func updateStateMetrics(state *ChainState, queueLength uint64) {
	totalElementsGauge.Update(int64(state.TotalElements))
	totalBatchesGauge.Update(int64(state.TotalBatches))
	queueLengthGauge.Update(int64(queueLength))
	pendingQueueGauge.Update(int64(queueLength - state.NextQueueIndex))
}

func countEvent(ev LedgerEvent) {
	switch ev.(type) {
	case *TransactionEnqueued:
		enqueuedCounter.Inc(1)
	case *QueueBatchAppended:
		queueBatchCounter.Inc(1)
	case *SequencerBatchAppended:
		sequencerBatchCounter.Inc(1)
	}
}
