// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package signature

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var ErrMissingSignature = errors.New("missing required signature")

// RecoverSigner returns the address that produced signature over hash.
// Both V encodings, {0, 1} and {27, 28}, are accepted.
func RecoverSigner(hash common.Hash, signature []byte) (common.Address, error) {
	if len(signature) == 0 {
		return common.Address{}, ErrMissingSignature
	}
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, errors.Errorf("signature has %d bytes, expected %d", len(signature), crypto.SignatureLength)
	}
	sig := common.CopyBytes(signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	sigPublicKey, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "unable to recover signing key")
	}
	return crypto.PubkeyToAddress(*sigPublicKey), nil
}
