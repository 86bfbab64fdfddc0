// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package stopwaiter

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

const stopDelayWarningTimeout = 30 * time.Second

var (
	ErrAlreadyStarted = errors.New("start after start")
	ErrNotStarted     = errors.New("not started")
)

// StopWaiterSafe owns the lifetime of a service's background threads.
// Start-after-stop immediately cancels; StopAndWait may be called before Start.
type StopWaiterSafe struct {
	mutex    sync.Mutex // protects everything below except wg
	started  bool
	stopped  bool
	ctx      context.Context
	stopFunc context.CancelFunc
	name     string

	wg sync.WaitGroup
}

func (s *StopWaiterSafe) Started() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.started
}

func (s *StopWaiterSafe) Stopped() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stopped
}

func (s *StopWaiterSafe) GetContext() (context.Context, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.ctx, nil
}

func (s *StopWaiterSafe) Start(ctx context.Context, parent any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	// remove asterisk in case the type is a pointer
	s.name = strings.Replace(reflect.TypeOf(parent).String(), "*", "", 1)
	s.ctx, s.stopFunc = context.WithCancel(ctx)
	if s.stopped {
		s.stopFunc()
	}
	return nil
}

// stopOnly returns true if the context was cancelled by this call
func (s *StopWaiterSafe) stopOnly() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	cancelled := s.started && !s.stopped
	if cancelled {
		s.stopFunc()
	}
	s.stopped = true
	return cancelled
}

func (s *StopWaiterSafe) StopOnly() {
	s.stopOnly()
}

func (s *StopWaiterSafe) StopAndWait() {
	s.stopAndWaitImpl(stopDelayWarningTimeout)
}

func (s *StopWaiterSafe) stopAndWaitImpl(warningTimeout time.Duration) {
	if !s.stopOnly() {
		return
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(warningTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return
	case <-timer.C:
		log.Warn("taking too long to stop", "name", s.name, "delay[s]", warningTimeout.Seconds())
	}
	<-done
}

// If stop was already called, thread might silently not be launched
func (s *StopWaiterSafe) LaunchThread(foo func(context.Context)) error {
	ctx, err := s.GetContext()
	if err != nil {
		return err
	}
	if s.Stopped() {
		return nil
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		foo(ctx)
	}()
	return nil
}

// CallIteratively calls foo in a thread until the context is cancelled.
// foo returns how long to wait before the next invocation.
func (s *StopWaiterSafe) CallIteratively(foo func(context.Context) time.Duration) error {
	return s.LaunchThread(func(ctx context.Context) {
		for {
			interval := foo(ctx)
			if ctx.Err() != nil {
				return
			}
			if interval == 0 {
				continue
			}
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	})
}

// StopWaiter panics on misuse instead of returning errors
type StopWaiter struct {
	StopWaiterSafe
}

func (s *StopWaiter) Start(ctx context.Context, parent any) {
	if err := s.StopWaiterSafe.Start(ctx, parent); err != nil {
		panic(err)
	}
}

func (s *StopWaiter) LaunchThread(foo func(context.Context)) {
	if err := s.StopWaiterSafe.LaunchThread(foo); err != nil {
		panic(err)
	}
}

func (s *StopWaiter) CallIteratively(foo func(context.Context) time.Duration) {
	if err := s.StopWaiterSafe.CallIteratively(foo); err != nil {
		panic(err)
	}
}

func (s *StopWaiter) GetContext() context.Context {
	ctx, err := s.StopWaiterSafe.GetContext()
	if err != nil {
		panic(err)
	}
	return ctx
}
