// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"sync"
	"time"
)

// L1Reference supplies the current L1 time (unix seconds) and block number.
// Both must be non-decreasing.
type L1Reference interface {
	Timestamp() uint64
	BlockNumber() uint64
}

// WallClockReference derives the block number from the local clock,
// assuming one block every blockTime since genesis.
type WallClockReference struct {
	genesis      time.Time
	genesisBlock uint64
	blockTime    time.Duration
}

func NewWallClockReference(genesis time.Time, genesisBlock uint64, blockTime time.Duration) *WallClockReference {
	if blockTime <= 0 {
		blockTime = time.Second
	}
	return &WallClockReference{
		genesis:      genesis,
		genesisBlock: genesisBlock,
		blockTime:    blockTime,
	}
}

func (r *WallClockReference) Timestamp() uint64 {
	return uint64(time.Now().Unix())
}

func (r *WallClockReference) BlockNumber() uint64 {
	elapsed := time.Since(r.genesis)
	if elapsed < 0 {
		return r.genesisBlock
	}
	return r.genesisBlock + uint64(elapsed/r.blockTime)
}

// ArtificialL1Reference is moved forward by hand. Used in tests and dev mode.
type ArtificialL1Reference struct {
	mutex       sync.Mutex
	timestamp   uint64
	blockNumber uint64
}

func NewArtificialL1Reference(timestamp, blockNumber uint64) *ArtificialL1Reference {
	return &ArtificialL1Reference{
		timestamp:   timestamp,
		blockNumber: blockNumber,
	}
}

func (r *ArtificialL1Reference) Timestamp() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.timestamp
}

func (r *ArtificialL1Reference) BlockNumber() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.blockNumber
}

// Advance moves time forward by seconds and the chain forward by blocks.
func (r *ArtificialL1Reference) Advance(seconds, blocks uint64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.timestamp += seconds
	r.blockNumber += blocks
}
