// Copyright 2023, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE

package arbmath

import (
	"errors"
)

const MaxUint24 = 1<<24 - 1 // 16777215
const MaxUint40 = 1<<40 - 1

var ErrOutOfRange = errors.New("value out of range")

// PutUintN writes the low len(dest) bytes of value into dest, big-endian.
// It fails if value needs more than len(dest) bytes.
func PutUintN(dest []byte, value uint64) error {
	width := len(dest)
	if width < 8 && value>>(8*uint(width)) != 0 {
		return ErrOutOfRange
	}
	for i := width - 1; i >= 0; i-- {
		dest[i] = byte(value)
		value >>= 8
	}
	return nil
}

// UintN reads a big-endian unsigned integer of up to 8 bytes.
func UintN(src []byte) uint64 {
	var value uint64
	for _, b := range src {
		value = value<<8 | uint64(b)
	}
	return value
}
