// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package signature

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
)

// DataSigner signs a 32 byte digest, returning a 65 byte [R || S || V]
// signature with V in {0, 1}.
type DataSigner func([]byte) ([]byte, error)

func DataSignerFromPrivateKey(privateKey *ecdsa.PrivateKey) DataSigner {
	return func(data []byte) ([]byte, error) {
		return crypto.Sign(data, privateKey)
	}
}
