// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"github.com/offchainlabs/ctc/util/arbmath"
)

var (
	ledgerPrefix       string = "\x0c"      // the prefix for all ledger keys
	queueElementPrefix []byte = []byte("q") // maps a queue index to a queue element
	batchHeaderPrefix  []byte = []byte("b") // maps a batch index to a batch header

	chainStateKey  []byte = []byte("_chainState")  // contains the current chain state
	queueLengthKey []byte = []byte("_queueLength") // contains the current queue length
)

func dbKey(prefix []byte, pos uint64) []byte {
	var key []byte
	key = append(key, prefix...)
	key = append(key, arbmath.UintToBytes(pos)...)
	return key
}
