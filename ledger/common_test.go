// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"

	"github.com/offchainlabs/ctc/util/testhelpers"
)

const (
	testStartTimestamp = 1_600_000_000
	testStartBlock     = 10_000
	testPeriod         = 100 // TestConfig.ForceInclusionPeriod in seconds
)

var (
	testSequencer = common.HexToAddress("0x5e9e0c0000000000000000000000000000000001")
	testUser      = common.HexToAddress("0x0000000000000000000000000000000000a11ce0")
	testTarget    = common.HexToAddress("0x00000000000000000000000000000000000ba5e0")
)

type testChain struct {
	*CanonicalChain
	db       ethdb.Database
	l1       *ArtificialL1Reference
	resolver *AddressManager
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()
	db := rawdb.NewMemoryDatabase()
	l1 := NewArtificialL1Reference(testStartTimestamp, testStartBlock)
	resolver := NewAddressManager()
	resolver.SetAddress(TestConfig.SequencerName, testSequencer)
	chain, err := NewCanonicalChain(db, &TestConfig, resolver, l1)
	Require(t, err)
	return &testChain{
		CanonicalChain: chain,
		db:             db,
		l1:             l1,
		resolver:       resolver,
	}
}

// reopen loads a second chain instance from the same database.
func (tc *testChain) reopen(t *testing.T) *CanonicalChain {
	t.Helper()
	chain, err := NewCanonicalChain(tc.db, &TestConfig, tc.resolver, tc.l1)
	Require(t, err)
	return chain
}

func userOpts() *CallOpts {
	return &CallOpts{From: testUser, GasBudget: 1_000_000}
}

func sequencerOpts() *CallOpts {
	return &CallOpts{From: testSequencer}
}

func (tc *testChain) enqueueN(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := tc.Enqueue(userOpts(), testTarget, 500_000, []byte{byte(i)})
		Require(t, err)
	}
}

func newSequencerBatch(start uint64, contexts []BatchContext, txs ...[]byte) *SequencerBatch {
	var total uint64
	for _, context := range contexts {
		total += context.NumElements()
	}
	return &SequencerBatch{
		ShouldStartAtElement:  start,
		TotalElementsToAppend: total,
		Contexts:              contexts,
		Transactions:          txs,
	}
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}
