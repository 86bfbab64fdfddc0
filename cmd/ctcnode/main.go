// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/ctc/cmd/genericconf"
	"github.com/offchainlabs/ctc/cmd/util/confighelpers"
)

func printSampleUsage(name string) {
	fmt.Printf("Sample usage: %s --help \n", name)
}

func main() {
	os.Exit(mainImpl())
}

// Returns the exit code
func mainImpl() int {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	args := os.Args[1:]
	nodeConfig, err := ParseNode(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if errors.Is(err, confighelpers.ErrVersion) {
			fmt.Println("ctcnode")
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
		printSampleUsage(os.Args[0])
		return 1
	}
	if nodeConfig.Conf.Dump {
		return 0
	}

	err = genericconf.InitLog(nodeConfig.LogType, nodeConfig.LogLevel, &nodeConfig.FileLogging, genericconf.DefaultPathResolver(nodeConfig.Persistent.Chain))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}

	if nodeConfig.Metrics {
		go metrics.CollectProcessMetrics(nodeConfig.MetricsServer.UpdateInterval)
		if nodeConfig.MetricsServer.Addr != "" {
			address := fmt.Sprintf("%v:%v", nodeConfig.MetricsServer.Addr, nodeConfig.MetricsServer.Port)
			exp.Setup(address)
		}
	}

	node, err := CreateNode(ctx, nodeConfig)
	if err != nil {
		log.Error("failed to create node", "err", err)
		return 1
	}
	if err := node.Start(ctx); err != nil {
		log.Error("failed to start node", "err", err)
		node.StopAndWait()
		return 1
	}
	state := node.Chain.State()
	log.Info("ctc node running", "elements", state.TotalElements, "batches", state.TotalBatches, "queueLength", node.Chain.GetQueueLength())

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint
	log.Info("shutting down because of sigint")

	// cause future ctrl+c's to panic
	close(sigint)
	cancelFunc()
	node.StopAndWait()
	return 0
}
