// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"errors"
	"time"

	flag "github.com/spf13/pflag"
)

// Config holds the constants of a chain. They are fixed once the chain is
// constructed.
type Config struct {
	MaxTransactionSize     uint64        `koanf:"max-transaction-size"`
	MinTransactionGasLimit uint64        `koanf:"min-transaction-gas-limit"`
	MaxTransactionGasLimit uint64        `koanf:"max-transaction-gas-limit"`
	GasDiscountDivisor     uint64        `koanf:"gas-discount-divisor"`
	ForceInclusionPeriod   time.Duration `koanf:"force-inclusion-period"`
	SequencerName          string        `koanf:"sequencer-name"`
	QueueCacheSize         int           `koanf:"queue-cache-size"`
}

var DefaultConfig = Config{
	MaxTransactionSize:     10_000,
	MinTransactionGasLimit: 100_000,
	MaxTransactionGasLimit: 15_000_000,
	GasDiscountDivisor:     32,
	ForceInclusionPeriod:   10 * time.Minute,
	SequencerName:          "Sequencer",
	QueueCacheSize:         1024,
}

var TestConfig = Config{
	MaxTransactionSize:     10_000,
	MinTransactionGasLimit: 100_000,
	MaxTransactionGasLimit: 15_000_000,
	GasDiscountDivisor:     32,
	ForceInclusionPeriod:   100 * time.Second,
	SequencerName:          "Sequencer",
	QueueCacheSize:         16,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Uint64(prefix+".max-transaction-size", DefaultConfig.MaxTransactionSize, "maximum size in bytes of an enqueued transaction's data")
	f.Uint64(prefix+".min-transaction-gas-limit", DefaultConfig.MinTransactionGasLimit, "minimum gas limit of an enqueued transaction")
	f.Uint64(prefix+".max-transaction-gas-limit", DefaultConfig.MaxTransactionGasLimit, "maximum gas limit of an enqueued transaction (0 = no limit)")
	f.Uint64(prefix+".gas-discount-divisor", DefaultConfig.GasDiscountDivisor, "enqueuers must bring gas-limit / gas-discount-divisor gas to rate limit the queue")
	f.Duration(prefix+".force-inclusion-period", DefaultConfig.ForceInclusionPeriod, "how long a queue element may wait before anyone can force its inclusion")
	f.String(prefix+".sequencer-name", DefaultConfig.SequencerName, "name under which the sequencer address is registered")
	f.Int(prefix+".queue-cache-size", DefaultConfig.QueueCacheSize, "number of queue elements to keep in memory (0 = disable)")
}

func (c *Config) Validate() error {
	if c.GasDiscountDivisor == 0 {
		return errors.New("gas-discount-divisor must be positive")
	}
	if c.ForceInclusionPeriod < time.Second {
		return errors.New("force-inclusion-period must be at least one second")
	}
	if c.MaxTransactionGasLimit != 0 && c.MaxTransactionGasLimit < c.MinTransactionGasLimit {
		return errors.New("max-transaction-gas-limit is below min-transaction-gas-limit")
	}
	if c.SequencerName == "" {
		return errors.New("sequencer-name must be set")
	}
	return nil
}

// forceInclusionSeconds truncates the period to whole seconds, the
// resolution of L1 timestamps.
func (c *Config) forceInclusionSeconds() uint64 {
	return uint64(c.ForceInclusionPeriod / time.Second)
}
