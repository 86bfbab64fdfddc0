// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ctcapi

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/offchainlabs/ctc/util/arbmath"
	"github.com/offchainlabs/ctc/util/signature"
)

// Signed requests commit to the chain position they extend, so a request
// can be applied at most once.
var (
	enqueueDomain        = []byte("ctc.enqueue")
	queueBatchDomain     = []byte("ctc.appendQueueBatch")
	sequencerBatchDomain = []byte("ctc.appendSequencerBatch")
)

type EnqueueRequest struct {
	QueueIndex hexutil.Uint64 `json:"queueIndex"` // the queue length this request extends
	Target     common.Address `json:"target"`
	GasLimit   hexutil.Uint64 `json:"gasLimit"`
	Data       hexutil.Bytes  `json:"data"`
	Signature  hexutil.Bytes  `json:"signature"`
}

func (r *EnqueueRequest) SigningHash() common.Hash {
	return crypto.Keccak256Hash(
		enqueueDomain,
		arbmath.Uint64ToU256Bytes(uint64(r.QueueIndex)),
		r.Target.Bytes(),
		arbmath.Uint64ToU256Bytes(uint64(r.GasLimit)),
		crypto.Keccak256(r.Data),
	)
}

func (r *EnqueueRequest) Sign(signer signature.DataSigner) error {
	sig, err := signer(r.SigningHash().Bytes())
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}

type QueueBatchRequest struct {
	StartQueueIndex hexutil.Uint64 `json:"startQueueIndex"`
	Count           hexutil.Uint64 `json:"count"`
	Signature       hexutil.Bytes  `json:"signature"`
}

func (r *QueueBatchRequest) SigningHash() common.Hash {
	return crypto.Keccak256Hash(
		queueBatchDomain,
		arbmath.Uint64ToU256Bytes(uint64(r.StartQueueIndex)),
		arbmath.Uint64ToU256Bytes(uint64(r.Count)),
	)
}

func (r *QueueBatchRequest) Sign(signer signature.DataSigner) error {
	sig, err := signer(r.SigningHash().Bytes())
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}

// SequencerBatchRequest carries a batch encoded by batchcodec. The batch's
// own start element makes the request single use.
type SequencerBatchRequest struct {
	Batch     hexutil.Bytes `json:"batch"`
	Signature hexutil.Bytes `json:"signature"`
}

func (r *SequencerBatchRequest) SigningHash() common.Hash {
	return crypto.Keccak256Hash(sequencerBatchDomain, crypto.Keccak256(r.Batch))
}

func (r *SequencerBatchRequest) Sign(signer signature.DataSigner) error {
	sig, err := signer(r.SigningHash().Bytes())
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}
