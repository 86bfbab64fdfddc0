// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// AddressResolver looks up system identities by name. The chain resolves
// the sequencer on every authorization check, so rotating the sequencer is a
// registry update.
type AddressResolver interface {
	Resolve(name string) (common.Address, error)
}

// AddressManager is an in-process name registry.
type AddressManager struct {
	mutex     sync.RWMutex
	addresses map[string]common.Address
}

func NewAddressManager() *AddressManager {
	return &AddressManager{
		addresses: make(map[string]common.Address),
	}
}

func (m *AddressManager) SetAddress(name string, addr common.Address) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	old := m.addresses[name]
	m.addresses[name] = addr
	log.Info("address registered", "name", name, "old", old, "new", addr)
}

func (m *AddressManager) Resolve(name string) (common.Address, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	addr, ok := m.addresses[name]
	if !ok {
		return common.Address{}, errors.Wrapf(ErrNameNotRegistered, "name %q", name)
	}
	return addr, nil
}
