// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/ctc/cmd/genericconf"
	"github.com/offchainlabs/ctc/cmd/util/confighelpers"
	"github.com/offchainlabs/ctc/ctcapi"
	"github.com/offchainlabs/ctc/forceinclusion"
	"github.com/offchainlabs/ctc/l1reference"
	"github.com/offchainlabs/ctc/ledger"
	"github.com/offchainlabs/ctc/util/rpcserver"
)

type PersistentConfig struct {
	Chain    string `koanf:"chain"`
	DBEngine string `koanf:"db-engine"`
	Cache    int    `koanf:"cache"`
	Handles  int    `koanf:"handles"`
}

var PersistentConfigDefault = PersistentConfig{
	Chain:    "ctcdata",
	DBEngine: "pebble",
	Cache:    256,
	Handles:  512,
}

func PersistentConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".chain", PersistentConfigDefault.Chain, "directory to store the chain database")
	f.String(prefix+".db-engine", PersistentConfigDefault.DBEngine, "backing database implementation to use ('pebble', 'leveldb' or 'memory')")
	f.Int(prefix+".cache", PersistentConfigDefault.Cache, "database cache size in MB")
	f.Int(prefix+".handles", PersistentConfigDefault.Handles, "number of open file handles for the database")
}

func (c *PersistentConfig) Validate() error {
	switch c.DBEngine {
	case "pebble", "leveldb":
		if c.Chain == "" {
			return errors.New("persistent.chain must be set for an on disk database")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid persistent.db-engine %q", c.DBEngine)
	}
	return nil
}

type MetricsServerConfig struct {
	Addr           string        `koanf:"addr"`
	Port           int           `koanf:"port"`
	UpdateInterval time.Duration `koanf:"update-interval"`
}

var MetricsServerConfigDefault = MetricsServerConfig{
	Addr:           "127.0.0.1",
	Port:           6070,
	UpdateInterval: 3 * time.Second,
}

func MetricsServerConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".addr", MetricsServerConfigDefault.Addr, "metrics server address")
	f.Int(prefix+".port", MetricsServerConfigDefault.Port, "metrics server port")
	f.Duration(prefix+".update-interval", MetricsServerConfigDefault.UpdateInterval, "metrics server update interval")
}

type NodeConfig struct {
	Conf        genericconf.ConfConfig        `koanf:"conf"`
	LogLevel    string                        `koanf:"log-level"`
	LogType     string                        `koanf:"log-type"`
	FileLogging genericconf.FileLoggingConfig `koanf:"file-logging"`
	Persistent  PersistentConfig              `koanf:"persistent"`

	Ledger         ledger.Config         `koanf:"ledger"`
	Sequencer      string                `koanf:"sequencer"`
	L1             l1reference.Config    `koanf:"l1"`
	L1BlockTime    time.Duration         `koanf:"l1-block-time"`
	API            ctcapi.Config         `koanf:"api"`
	HTTP           rpcserver.Config      `koanf:"http"`
	ForceInclusion forceinclusion.Config `koanf:"force-inclusion"`

	Metrics       bool                `koanf:"metrics"`
	MetricsServer MetricsServerConfig `koanf:"metrics-server"`
}

var NodeConfigDefault = NodeConfig{
	Conf:           genericconf.ConfConfigDefault,
	LogLevel:       "info",
	LogType:        "plaintext",
	FileLogging:    genericconf.DefaultFileLoggingConfig,
	Persistent:     PersistentConfigDefault,
	Ledger:         ledger.DefaultConfig,
	Sequencer:      "",
	L1:             l1reference.DefaultConfig,
	L1BlockTime:    12 * time.Second,
	API:            ctcapi.DefaultConfig,
	HTTP:           rpcserver.DefaultConfig,
	ForceInclusion: forceinclusion.DefaultConfig,
	Metrics:        false,
	MetricsServer:  MetricsServerConfigDefault,
}

func NodeConfigAddOptions(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)
	f.String("log-level", NodeConfigDefault.LogLevel, "log level, valid values are CRIT, ERROR, WARN, INFO, DEBUG, TRACE")
	f.String("log-type", NodeConfigDefault.LogType, "log type (plaintext or json)")
	genericconf.FileLoggingConfigAddOptions("file-logging", f)
	PersistentConfigAddOptions("persistent", f)
	ledger.ConfigAddOptions("ledger", f)
	f.String("sequencer", NodeConfigDefault.Sequencer, "address registered as the sequencer (empty = no sequencer, queue elements are only force included)")
	l1reference.ConfigAddOptions("l1", f)
	f.Duration("l1-block-time", NodeConfigDefault.L1BlockTime, "block time used to derive L1 block numbers from the local clock when no l1.url is set")
	ctcapi.ConfigAddOptions("api", f)
	rpcserver.ConfigAddOptions("http", f)
	forceinclusion.ConfigAddOptions("force-inclusion", f)
	f.Bool("metrics", NodeConfigDefault.Metrics, "enable metrics")
	MetricsServerConfigAddOptions("metrics-server", f)
}

func (c *NodeConfig) Validate() error {
	if err := c.Persistent.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if c.Sequencer != "" && !common.IsHexAddress(c.Sequencer) {
		return fmt.Errorf("invalid sequencer address %q", c.Sequencer)
	}
	if c.L1.URL != "" {
		if err := c.L1.Validate(); err != nil {
			return fmt.Errorf("l1: %w", err)
		}
	} else if c.L1BlockTime <= 0 {
		return errors.New("l1-block-time must be positive")
	}
	if c.HTTP.Enable {
		if err := c.HTTP.Validate(); err != nil {
			return fmt.Errorf("http: %w", err)
		}
		if c.API.Admin && c.HTTP.JWTSecret == "" {
			return errors.New("api.admin requires http.jwtsecret")
		}
	}
	if c.ForceInclusion.Enable {
		if err := c.ForceInclusion.Validate(); err != nil {
			return fmt.Errorf("force-inclusion: %w", err)
		}
	}
	return nil
}

func ParseNode(args []string) (*NodeConfig, error) {
	f := flag.NewFlagSet("", flag.ContinueOnError)
	NodeConfigAddOptions(f)

	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}
	var nodeConfig NodeConfig
	if err := confighelpers.EndCommonParse(k, &nodeConfig); err != nil {
		return nil, err
	}
	if nodeConfig.Conf.Dump {
		if err := confighelpers.DumpConfig(k, map[string]bool{}); err != nil {
			return nil, err
		}
	}
	if err := nodeConfig.Validate(); err != nil {
		return nil, err
	}
	return &nodeConfig, nil
}
