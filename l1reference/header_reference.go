// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

// Package l1reference follows the head of an L1 chain so the ledger can
// stamp queue elements and bound batch contexts with real L1 time.
package l1reference

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/ctc/ledger"
	"github.com/offchainlabs/ctc/util/stopwaiter"
)

// L1Interface is the part of ethclient.Client the reference needs.
type L1Interface interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type Config struct {
	URL          string        `koanf:"url"`
	PollInterval time.Duration `koanf:"poll-interval"`
	StartTimeout time.Duration `koanf:"start-timeout"`
}

var DefaultConfig = Config{
	URL:          "",
	PollInterval: 15 * time.Second,
	StartTimeout: time.Minute,
}

var TestConfig = Config{
	PollInterval: 10 * time.Millisecond,
	StartTimeout: time.Second,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", DefaultConfig.URL, "L1 node url (empty = derive L1 time from the local clock)")
	f.Duration(prefix+".poll-interval", DefaultConfig.PollInterval, "interval when polling L1 for the latest header")
	f.Duration(prefix+".start-timeout", DefaultConfig.StartTimeout, "how long to wait for the first L1 header on startup")
}

func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("poll-interval must be positive")
	}
	return nil
}

// HeaderReference is a ledger.L1Reference backed by the latest L1 header.
// The reported position never moves backwards, even across L1 reorgs.
type HeaderReference struct {
	stopwaiter.StopWaiter
	config Config
	client L1Interface

	mutex       sync.RWMutex
	timestamp   uint64
	blockNumber uint64
}

var _ ledger.L1Reference = (*HeaderReference)(nil)

func NewHeaderReference(client L1Interface, config Config) (*HeaderReference, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &HeaderReference{
		config: config,
		client: client,
	}, nil
}

// Start blocks until the first header is read, then polls in the background.
func (r *HeaderReference) Start(ctxIn context.Context) error {
	startCtx, cancel := context.WithTimeout(ctxIn, r.config.StartTimeout)
	defer cancel()
	for {
		err := r.update(startCtx)
		if err == nil {
			break
		}
		log.Warn("waiting for first L1 header", "err", err)
		select {
		case <-startCtx.Done():
			return fmt.Errorf("reading first L1 header: %w", err)
		case <-time.After(r.config.PollInterval):
		}
	}
	r.StopWaiter.Start(ctxIn, r)
	r.CallIteratively(r.pollHeader)
	return nil
}

func (r *HeaderReference) update(ctx context.Context) error {
	header, err := r.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return err
	}
	r.advanceTo(header)
	return nil
}

func (r *HeaderReference) advanceTo(header *types.Header) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if header.Time > r.timestamp {
		r.timestamp = header.Time
	}
	if header.Number != nil && header.Number.IsUint64() && header.Number.Uint64() > r.blockNumber {
		r.blockNumber = header.Number.Uint64()
	}
}

func (r *HeaderReference) pollHeader(ctx context.Context) time.Duration {
	if err := r.update(ctx); err != nil && ctx.Err() == nil {
		log.Warn("failed reading l1 header", "err", err)
	}
	return r.config.PollInterval
}

func (r *HeaderReference) Timestamp() uint64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.timestamp
}

func (r *HeaderReference) BlockNumber() uint64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.blockNumber
}
