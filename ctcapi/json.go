// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ctcapi

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/offchainlabs/ctc/ledger"
)

type QueueElementJson struct {
	CommitmentHash common.Hash    `json:"commitmentHash"`
	Timestamp      hexutil.Uint64 `json:"timestamp"`
	BlockNumber    hexutil.Uint64 `json:"blockNumber"`
}

func QueueElementToJson(element *ledger.QueueElement) *QueueElementJson {
	return &QueueElementJson{
		CommitmentHash: element.CommitmentHash,
		Timestamp:      hexutil.Uint64(element.Timestamp),
		BlockNumber:    hexutil.Uint64(element.BlockNumber),
	}
}

type ChainElementJson struct {
	IsFromQueue    bool           `json:"isFromQueue"`
	QueueIndex     hexutil.Uint64 `json:"queueIndex"`
	Timestamp      hexutil.Uint64 `json:"timestamp"`
	BlockNumber    hexutil.Uint64 `json:"blockNumber"`
	DataCommitment common.Hash    `json:"dataCommitment"`
}

func ChainElementToJson(element *ledger.ChainElement) *ChainElementJson {
	return &ChainElementJson{
		IsFromQueue:    element.IsFromQueue,
		QueueIndex:     hexutil.Uint64(element.QueueIndex),
		Timestamp:      hexutil.Uint64(element.Timestamp),
		BlockNumber:    hexutil.Uint64(element.BlockNumber),
		DataCommitment: element.DataCommitment,
	}
}

func ChainElementFromJson(element *ChainElementJson) ledger.ChainElement {
	return ledger.ChainElement{
		IsFromQueue:    element.IsFromQueue,
		QueueIndex:     uint64(element.QueueIndex),
		Timestamp:      uint64(element.Timestamp),
		BlockNumber:    uint64(element.BlockNumber),
		DataCommitment: element.DataCommitment,
	}
}

type BatchHeaderJson struct {
	BatchIndex          hexutil.Uint64 `json:"batchIndex"`
	BatchRoot           common.Hash    `json:"batchRoot"`
	BatchSize           hexutil.Uint64 `json:"batchSize"`
	PrevTotalElements   hexutil.Uint64 `json:"prevTotalElements"`
	PrevBatchCommitment common.Hash    `json:"prevBatchCommitment"`
	Commitment          common.Hash    `json:"commitment"`
}

func BatchHeaderToJson(header *ledger.BatchHeader) *BatchHeaderJson {
	return &BatchHeaderJson{
		BatchIndex:          hexutil.Uint64(header.BatchIndex),
		BatchRoot:           header.BatchRoot,
		BatchSize:           hexutil.Uint64(header.BatchSize),
		PrevTotalElements:   hexutil.Uint64(header.PrevTotalElements),
		PrevBatchCommitment: header.PrevBatchCommitment,
		Commitment:          header.Commitment(),
	}
}

// BatchHeaderFromJson ignores the Commitment field; it is recomputed from
// the header fields.
func BatchHeaderFromJson(header *BatchHeaderJson) ledger.BatchHeader {
	return ledger.BatchHeader{
		BatchIndex:          uint64(header.BatchIndex),
		BatchRoot:           header.BatchRoot,
		BatchSize:           uint64(header.BatchSize),
		PrevTotalElements:   uint64(header.PrevTotalElements),
		PrevBatchCommitment: header.PrevBatchCommitment,
	}
}

type ElementProofJson struct {
	Index    hexutil.Uint64 `json:"index"`
	Siblings []common.Hash  `json:"siblings"`
}

type ChainStateJson struct {
	TotalElements       hexutil.Uint64 `json:"totalElements"`
	NextQueueIndex      hexutil.Uint64 `json:"nextQueueIndex"`
	LastTimestamp       hexutil.Uint64 `json:"lastTimestamp"`
	LastBlockNumber     hexutil.Uint64 `json:"lastBlockNumber"`
	TotalBatches        hexutil.Uint64 `json:"totalBatches"`
	LastBatchCommitment common.Hash    `json:"lastBatchCommitment"`
}

func ChainStateToJson(state *ledger.ChainState) *ChainStateJson {
	return &ChainStateJson{
		TotalElements:       hexutil.Uint64(state.TotalElements),
		NextQueueIndex:      hexutil.Uint64(state.NextQueueIndex),
		LastTimestamp:       hexutil.Uint64(state.LastTimestamp),
		LastBlockNumber:     hexutil.Uint64(state.LastBlockNumber),
		TotalBatches:        hexutil.Uint64(state.TotalBatches),
		LastBatchCommitment: state.LastBatchCommitment,
	}
}

// EventJson carries one ledger event. Only the fields of Type are set.
type EventJson struct {
	Type string `json:"type"`

	Sender     *common.Address `json:"sender,omitempty"`
	Target     *common.Address `json:"target,omitempty"`
	GasLimit   *hexutil.Uint64 `json:"gasLimit,omitempty"`
	Data       hexutil.Bytes   `json:"data,omitempty"`
	QueueIndex *hexutil.Uint64 `json:"queueIndex,omitempty"`
	Timestamp  *hexutil.Uint64 `json:"timestamp,omitempty"`

	StartIndex    *hexutil.Uint64 `json:"startIndex,omitempty"`
	Count         *hexutil.Uint64 `json:"count,omitempty"`
	TotalElements *hexutil.Uint64 `json:"totalElements,omitempty"`

	Batch *BatchHeaderJson `json:"batch,omitempty"`
}

func u64(x uint64) *hexutil.Uint64 {
	value := hexutil.Uint64(x)
	return &value
}

func EventToJson(ev ledger.LedgerEvent) (*EventJson, error) {
	switch ev := ev.(type) {
	case *ledger.TransactionEnqueued:
		return &EventJson{
			Type:       "TransactionEnqueued",
			Sender:     &ev.Sender,
			Target:     &ev.Target,
			GasLimit:   u64(ev.GasLimit),
			Data:       ev.Data,
			QueueIndex: u64(ev.QueueIndex),
			Timestamp:  u64(ev.Timestamp),
		}, nil
	case *ledger.QueueBatchAppended:
		return &EventJson{
			Type:          "QueueBatchAppended",
			StartIndex:    u64(ev.StartIndex),
			Count:         u64(ev.Count),
			TotalElements: u64(ev.TotalElements),
		}, nil
	case *ledger.SequencerBatchAppended:
		return &EventJson{
			Type:          "SequencerBatchAppended",
			StartIndex:    u64(ev.StartIndex),
			Count:         u64(ev.Count),
			TotalElements: u64(ev.TotalElements),
		}, nil
	case *ledger.TransactionBatchAppended:
		header := &BatchHeaderJson{
			BatchIndex:          hexutil.Uint64(ev.BatchIndex),
			BatchRoot:           ev.BatchRoot,
			BatchSize:           hexutil.Uint64(ev.BatchSize),
			PrevTotalElements:   hexutil.Uint64(ev.PrevTotalElements),
			PrevBatchCommitment: ev.PrevBatchCommitment,
			Commitment:          ev.Commitment,
		}
		return &EventJson{
			Type:  "TransactionBatchAppended",
			Batch: header,
		}, nil
	default:
		return nil, fmt.Errorf("unknown ledger event %T", ev)
	}
}

type ReceiptJson struct {
	Events []*EventJson `json:"events"`
}

func ReceiptToJson(receipt *ledger.Receipt) (*ReceiptJson, error) {
	res := &ReceiptJson{}
	for _, ev := range receipt.Events {
		evJson, err := EventToJson(ev)
		if err != nil {
			return nil, err
		}
		res.Events = append(res.Events, evJson)
	}
	return res, nil
}
