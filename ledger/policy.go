// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ForceInclusionPolicy decides who may move queue elements into the chain.
// The sequencer always may. Anyone may once the oldest pending element has
// waited longer than Period seconds.
type ForceInclusionPolicy struct {
	Period uint64
}

// HeadIsForceable reports whether head has waited out the period. A nil head
// (empty pending queue) is never forceable.
func (p ForceInclusionPolicy) HeadIsForceable(head *QueueElement, now uint64) bool {
	if head == nil || now <= head.Timestamp {
		return false
	}
	return now-head.Timestamp > p.Period
}

// Authorize returns nil if caller may append queue elements right now. A zero
// sequencer address means no sequencer is registered.
func (p ForceInclusionPolicy) Authorize(caller, sequencer common.Address, head *QueueElement, now uint64) error {
	if sequencer != (common.Address{}) && caller == sequencer {
		return nil
	}
	if p.HeadIsForceable(head, now) {
		return nil
	}
	return errors.Wrapf(ErrUnauthorized, "%v may only append queue elements older than %d seconds", caller, p.Period)
}
