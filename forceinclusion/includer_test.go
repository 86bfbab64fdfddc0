// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package forceinclusion

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/offchainlabs/ctc/ledger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	testSequencer = common.HexToAddress("0x5e9e0c0000000000000000000000000000000001")
	testUser      = common.HexToAddress("0x0000000000000000000000000000000000a11ce0")
)

func newTestChain(t *testing.T, queued int) (*ledger.CanonicalChain, *ledger.ArtificialL1Reference) {
	t.Helper()
	l1 := ledger.NewArtificialL1Reference(1_600_000_000, 10_000)
	resolver := ledger.NewAddressManager()
	resolver.SetAddress(ledger.TestConfig.SequencerName, testSequencer)
	chain, err := ledger.NewCanonicalChain(rawdb.NewMemoryDatabase(), &ledger.TestConfig, resolver, l1)
	require.NoError(t, err)
	for i := 0; i < queued; i++ {
		_, err := chain.Enqueue(&ledger.CallOpts{From: testUser, GasBudget: 1_000_000}, testUser, 500_000, []byte{byte(i)})
		require.NoError(t, err)
	}
	return chain, l1
}

func forcePeriod() uint64 {
	return uint64(ledger.TestConfig.ForceInclusionPeriod / time.Second)
}

func TestIncludeForceable(t *testing.T) {
	chain, l1 := newTestChain(t, 3)
	config := TestConfig
	includer, err := NewIncluder(chain, &config)
	require.NoError(t, err)

	count, err := includer.IncludeForceable()
	require.NoError(t, err)
	require.Zero(t, count)

	l1.Advance(forcePeriod(), 1)
	count, err = includer.IncludeForceable()
	require.NoError(t, err)
	require.Zero(t, count, "head at exactly the period is not forceable")

	l1.Advance(1, 0)
	count, err = includer.IncludeForceable()
	require.NoError(t, err)
	require.Equal(t, config.MaxBatch, count)
	count, err = includer.IncludeForceable()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
	require.Equal(t, uint64(3), chain.GetTotalElements())
	require.Equal(t, uint64(2), chain.GetTotalBatches())
	require.Zero(t, chain.GetNumPendingQueueElements())
}

func TestIncluderLoop(t *testing.T) {
	chain, l1 := newTestChain(t, 5)
	config := TestConfig
	includer, err := NewIncluder(chain, &config)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	includer.Start(ctx)
	defer includer.StopAndWait()

	time.Sleep(5 * config.PollInterval)
	require.Zero(t, chain.GetTotalElements())

	l1.Advance(forcePeriod()+1, 1)
	require.Eventually(t, func() bool {
		return chain.GetNumPendingQueueElements() == 0
	}, 5*time.Second, config.PollInterval)
	require.Equal(t, uint64(5), chain.GetTotalElements())

	// elements enqueued after the jump wait out their own period
	_, err = chain.Enqueue(&ledger.CallOpts{From: testUser, GasBudget: 1_000_000}, testUser, 500_000, nil)
	require.NoError(t, err)
	time.Sleep(5 * config.PollInterval)
	require.Equal(t, uint64(1), chain.GetNumPendingQueueElements())
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig
	require.NoError(t, config.Validate())
	config.From = "not an address"
	require.Error(t, config.Validate())
	config = DefaultConfig
	config.MaxBatch = 0
	require.Error(t, config.Validate())
}
