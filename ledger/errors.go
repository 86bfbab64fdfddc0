// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import "github.com/pkg/errors"

var (
	ErrPayloadTooLarge             = errors.New("transaction data size exceeds maximum for rollup transaction")
	ErrGasLimitTooLow              = errors.New("transaction gas limit too low to enqueue")
	ErrGasLimitTooHigh             = errors.New("transaction gas limit exceeds maximum for rollup transaction")
	ErrInsufficientRateLimitBudget = errors.New("insufficient gas for L2 rate limiting burn")
	ErrIndexOutOfRange             = errors.New("index out of range")
	ErrEmptyAppend                 = errors.New("must append at least one element")
	ErrUnauthorized                = errors.New("caller is not authorized")
	ErrStaleStart                  = errors.New("actual batch start index does not match expected start index")
	ErrNoContexts                  = errors.New("must provide at least one batch context")
	ErrQueueElementPending         = errors.New("older queue elements must be processed before a new batch")
	ErrTimestampTooHigh            = errors.New("sequencer transactions timestamp too high")
	ErrBlockHeightTooHigh          = errors.New("sequencer transactions block number too high")
	ErrTimestampDecreasing         = errors.New("context timestamp lower than last appended element")
	ErrBlockHeightDecreasing       = errors.New("context block number lower than last appended element")
	ErrContextInFuture             = errors.New("context timestamp or block number is in the future")
	ErrElementCountMismatch        = errors.New("actual transaction index does not match expected total elements to append")
	ErrInvalidBatchHeader          = errors.New("invalid batch header")
	ErrInvalidElementProof         = errors.New("invalid inclusion proof")
	ErrMissingCallOpts             = errors.New("call options are required")
	ErrNameNotRegistered           = errors.New("no address registered for name")
)
