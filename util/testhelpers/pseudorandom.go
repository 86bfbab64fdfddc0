// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package testhelpers

import (
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PseudoRandomDataSource repeats on every execution, so failures reproduce.
type PseudoRandomDataSource struct {
	salt  common.Hash
	index uint64
}

// T param is to make sure it's only used in testing
func NewPseudoRandomDataSource(_ *testing.T, saltParam uint64) *PseudoRandomDataSource {
	return &PseudoRandomDataSource{
		salt: crypto.Keccak256Hash([]byte{'s'}, binary.BigEndian.AppendUint64(nil, saltParam)),
	}
}

func (r *PseudoRandomDataSource) GetHash() common.Hash {
	r.index++
	return crypto.Keccak256Hash(r.salt[:], binary.BigEndian.AppendUint64(nil, r.index))
}

func (r *PseudoRandomDataSource) GetAddress() common.Address {
	return common.BytesToAddress(r.GetHash().Bytes()[:20])
}

func (r *PseudoRandomDataSource) GetUint64() uint64 {
	return binary.BigEndian.Uint64(r.GetHash().Bytes()[:8])
}

// GetUint64InRange returns a value on the interval [min, max]
func (r *PseudoRandomDataSource) GetUint64InRange(min, max uint64) uint64 {
	return r.GetUint64()%(max-min+1) + min
}

func (r *PseudoRandomDataSource) GetData(size int) []byte {
	ret := make([]byte, 0, size+32)
	for len(ret) < size {
		ret = append(ret, r.GetHash().Bytes()...)
	}
	return ret[:size]
}
