// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/ctc/ctcapi"
	"github.com/offchainlabs/ctc/forceinclusion"
	"github.com/offchainlabs/ctc/l1reference"
	"github.com/offchainlabs/ctc/ledger"
	"github.com/offchainlabs/ctc/util/rpcserver"
)

// Node owns a canonical chain and the services around it.
type Node struct {
	db       ethdb.Database
	l1Client *ethclient.Client
	l1Reader *l1reference.HeaderReference
	Resolver *ledger.AddressManager
	Chain    *ledger.CanonicalChain
	Server   *rpcserver.Server
	Includer *forceinclusion.Includer
}

func openDatabase(config *PersistentConfig) (ethdb.Database, error) {
	if config.DBEngine == "memory" {
		return rawdb.NewMemoryDatabase(), nil
	}
	return rawdb.Open(rawdb.OpenOptions{
		Type:      config.DBEngine,
		Directory: filepath.Join(config.Chain, "ledger"),
		Namespace: "ctc/db/ledger/",
		Cache:     config.Cache,
		Handles:   config.Handles,
	})
}

// CreateNode opens the database and builds every configured service. When
// it fails, anything it opened is closed again.
func CreateNode(ctx context.Context, config *NodeConfig) (*Node, error) {
	node := &Node{}
	success := false
	defer func() {
		if !success {
			node.close()
		}
	}()

	var err error
	node.db, err = openDatabase(&config.Persistent)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var l1 ledger.L1Reference
	if config.L1.URL != "" {
		node.l1Client, err = ethclient.DialContext(ctx, config.L1.URL)
		if err != nil {
			return nil, fmt.Errorf("dialing l1: %w", err)
		}
		node.l1Reader, err = l1reference.NewHeaderReference(node.l1Client, config.L1)
		if err != nil {
			return nil, err
		}
		l1 = node.l1Reader
	} else {
		log.Warn("no l1.url set, deriving L1 time from the local clock", "blockTime", config.L1BlockTime)
		l1 = ledger.NewWallClockReference(time.Unix(0, 0), 0, config.L1BlockTime)
	}

	node.Resolver = ledger.NewAddressManager()
	if config.Sequencer != "" {
		node.Resolver.SetAddress(config.Ledger.SequencerName, common.HexToAddress(config.Sequencer))
	}
	node.Chain, err = ledger.NewCanonicalChain(node.db, &config.Ledger, node.Resolver, l1)
	if err != nil {
		return nil, err
	}

	if config.HTTP.Enable {
		node.Server, err = rpcserver.NewServer(&config.HTTP, ctcapi.APIs(node.Chain, node.Resolver, &config.API))
		if err != nil {
			return nil, err
		}
	}
	if config.ForceInclusion.Enable {
		node.Includer, err = forceinclusion.NewIncluder(node.Chain, &config.ForceInclusion)
		if err != nil {
			return nil, err
		}
	}
	success = true
	return node, nil
}

// Start reads the first L1 header, if following an L1 node, before any
// service can touch the chain.
func (n *Node) Start(ctx context.Context) error {
	if n.l1Reader != nil {
		if err := n.l1Reader.Start(ctx); err != nil {
			return err
		}
	}
	if n.Server != nil {
		if err := n.Server.Start(ctx); err != nil {
			return fmt.Errorf("starting http-rpc server: %w", err)
		}
	}
	if n.Includer != nil {
		n.Includer.Start(ctx)
	}
	return nil
}

func (n *Node) StopAndWait() {
	if n.Includer != nil && n.Includer.Started() {
		n.Includer.StopAndWait()
	}
	if n.Server != nil && n.Server.Started() {
		n.Server.StopAndWait()
	}
	if n.l1Reader != nil && n.l1Reader.Started() {
		n.l1Reader.StopAndWait()
	}
	n.close()
}

func (n *Node) close() {
	if n.l1Client != nil {
		n.l1Client.Close()
	}
	if n.db != nil {
		if err := n.db.Close(); err != nil {
			log.Error("error closing database", "err", err)
		}
	}
}
