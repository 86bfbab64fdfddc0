// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

// Package forceinclusion appends queue elements that the sequencer left
// pending past the force inclusion period.
package forceinclusion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/ctc/ledger"
	"github.com/offchainlabs/ctc/util/stopwaiter"
)

var includedCounter = metrics.NewRegisteredCounter("ctc/forceinclusion/included", nil)

type Config struct {
	Enable       bool          `koanf:"enable"`
	PollInterval time.Duration `koanf:"poll-interval"`
	MaxBatch     uint64        `koanf:"max-batch"`
	From         string        `koanf:"from"`
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultConfig.Enable, "force include queue elements left pending past the force inclusion period")
	f.Duration(prefix+".poll-interval", DefaultConfig.PollInterval, "interval between checks for forceable queue elements")
	f.Uint64(prefix+".max-batch", DefaultConfig.MaxBatch, "maximum number of queue elements appended in one batch")
	f.String(prefix+".from", DefaultConfig.From, "address the queue batches are appended from")
}

var DefaultConfig = Config{
	Enable:       false,
	PollInterval: 15 * time.Second,
	MaxBatch:     100,
	From:         "",
}

var TestConfig = Config{
	Enable:       true,
	PollInterval: 10 * time.Millisecond,
	MaxBatch:     2,
	From:         "",
}

func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("poll-interval must be positive")
	}
	if c.MaxBatch == 0 {
		return errors.New("max-batch must be positive")
	}
	if c.From != "" && !common.IsHexAddress(c.From) {
		return fmt.Errorf("invalid from address %q", c.From)
	}
	return nil
}

// Includer watches the queue head and, once it becomes forceable, appends
// the forceable prefix of the queue on behalf of its users.
type Includer struct {
	stopwaiter.StopWaiter
	chain  *ledger.CanonicalChain
	config *Config
	from   common.Address
}

func NewIncluder(chain *ledger.CanonicalChain, config *Config) (*Includer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Includer{
		chain:  chain,
		config: config,
		from:   common.HexToAddress(config.From),
	}, nil
}

// IncludeForceable appends up to MaxBatch forceable queue elements and
// returns how many were appended.
func (i *Includer) IncludeForceable() (uint64, error) {
	count, err := i.chain.ForceableQueueElements(i.config.MaxBatch)
	if err != nil || count == 0 {
		return 0, err
	}
	receipt, err := i.chain.AppendQueueBatch(&ledger.CallOpts{From: i.from}, count)
	if err != nil {
		return 0, err
	}
	includedCounter.Inc(int64(count))
	log.Info("force included queue elements", "count", count, "events", len(receipt.Events), "totalElements", i.chain.GetTotalElements())
	return count, nil
}

func (i *Includer) update(_ context.Context) time.Duration {
	count, err := i.IncludeForceable()
	if err != nil {
		// the sequencer may have absorbed the head in the meantime
		if errors.Is(err, ledger.ErrUnauthorized) {
			log.Debug("queue head no longer forceable", "err", err)
		} else {
			log.Warn("error force including queue elements", "err", err)
		}
		return i.config.PollInterval
	}
	if count == i.config.MaxBatch {
		return 0
	}
	return i.config.PollInterval
}

func (i *Includer) Start(ctxIn context.Context) {
	i.StopWaiter.Start(ctxIn, i)
	i.CallIteratively(i.update)
}
