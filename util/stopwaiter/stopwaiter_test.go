// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package stopwaiter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.uber.org/goleak"

	"github.com/offchainlabs/ctc/util/testhelpers"
)

const testStopDelayWarningTimeout = 350 * time.Millisecond

type TestStruct struct{}

func TestStopWaiterStopAndWaitTimeout(t *testing.T) {
	logHandler := testhelpers.InitTestLog(t, log.LevelTrace)
	sw := StopWaiter{}
	sw.Start(context.Background(), &TestStruct{})
	sw.LaunchThread(func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(testStopDelayWarningTimeout + 150*time.Millisecond)
	})
	time.Sleep(50 * time.Millisecond)
	sw.stopAndWaitImpl(testStopDelayWarningTimeout)
	if !logHandler.WasLogged("taking too long to stop") {
		testhelpers.FailImpl(t, "Failed to log about hanging on StopAndWait")
	}
}

func TestStopWaiterCallIteratively(t *testing.T) {
	defer goleak.VerifyNone(t)
	sw := StopWaiter{}
	sw.Start(context.Background(), &TestStruct{})
	var calls atomic.Int64
	sw.CallIteratively(func(ctx context.Context) time.Duration {
		calls.Add(1)
		return time.Millisecond
	})
	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			testhelpers.FailImpl(t, "iterative call did not repeat")
		}
		time.Sleep(time.Millisecond)
	}
	sw.StopAndWait()
	if !sw.Stopped() {
		testhelpers.FailImpl(t, "not stopped")
	}
}

func TestStopWaiterMisuse(t *testing.T) {
	sw := StopWaiterSafe{}
	if err := sw.LaunchThread(func(context.Context) {}); !errors.Is(err, ErrNotStarted) {
		testhelpers.FailImpl(t, "launched before start", err)
	}
	sw.StopAndWait()
	testhelpers.RequireImpl(t, sw.Start(context.Background(), &TestStruct{}))
	ctx, err := sw.GetContext()
	testhelpers.RequireImpl(t, err)
	if ctx.Err() == nil {
		testhelpers.FailImpl(t, "start after stop must cancel immediately")
	}
	if err := sw.Start(context.Background(), &TestStruct{}); !errors.Is(err, ErrAlreadyStarted) {
		testhelpers.FailImpl(t, "second start accepted", err)
	}
}
