// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package arbmath

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// UintToBytes casts a uint64 to its big-endian representation
func UintToBytes(value uint64) []byte {
	result := make([]byte, 8)
	binary.BigEndian.PutUint64(result, value)
	return result
}

// Uint64ToU256Bytes encodes a uint64 as a 32 byte EVM word
func Uint64ToU256Bytes(value uint64) []byte {
	word := uint256.NewInt(value).Bytes32()
	return word[:]
}

func BoolToByte(value bool) byte {
	if value {
		return 1
	}
	return 0
}
