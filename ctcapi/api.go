// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

// Package ctcapi serves a canonical chain over JSON-RPC.
package ctcapi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/ctc/ledger"
	"github.com/offchainlabs/ctc/ledger/batchcodec"
	"github.com/offchainlabs/ctc/util/signature"
)

const (
	Namespace      = "ctc"
	AdminNamespace = "ctcadmin"
)

var (
	ErrSubmissionsDisabled = errors.New("submissions are disabled on this node")
	ErrStaleRequest        = errors.New("request was signed for a different chain position")
)

type Config struct {
	Submissions bool `koanf:"submissions"`
	Admin       bool `koanf:"admin"`
}

var DefaultConfig = Config{
	Submissions: true,
	Admin:       false,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".submissions", DefaultConfig.Submissions, "accept signed enqueue and append requests")
	f.Bool(prefix+".admin", DefaultConfig.Admin, "serve the "+AdminNamespace+" namespace for updating the address registry (requires http.jwtsecret)")
}

type LedgerAPI struct {
	chain  *ledger.CanonicalChain
	config *Config

	// serializes the position check and the mutation of each request
	submitMutex sync.Mutex
}

func NewLedgerAPI(chain *ledger.CanonicalChain, config *Config) *LedgerAPI {
	return &LedgerAPI{
		chain:  chain,
		config: config,
	}
}

func APIs(chain *ledger.CanonicalChain, registry *ledger.AddressManager, config *Config) []rpc.API {
	apis := []rpc.API{{
		Namespace: Namespace,
		Service:   NewLedgerAPI(chain, config),
	}}
	if config.Admin && registry != nil {
		apis = append(apis, rpc.API{
			Namespace: AdminNamespace,
			Service:   &AdminAPI{registry: registry},
		})
	}
	return apis
}

func (a *LedgerAPI) GetTotalElements() hexutil.Uint64 {
	return hexutil.Uint64(a.chain.GetTotalElements())
}

func (a *LedgerAPI) GetTotalBatches() hexutil.Uint64 {
	return hexutil.Uint64(a.chain.GetTotalBatches())
}

func (a *LedgerAPI) GetLastTimestamp() hexutil.Uint64 {
	return hexutil.Uint64(a.chain.GetLastTimestamp())
}

func (a *LedgerAPI) GetLastBlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(a.chain.GetLastBlockNumber())
}

func (a *LedgerAPI) GetNextQueueIndex() hexutil.Uint64 {
	return hexutil.Uint64(a.chain.GetNextQueueIndex())
}

func (a *LedgerAPI) GetQueueLength() hexutil.Uint64 {
	return hexutil.Uint64(a.chain.GetQueueLength())
}

func (a *LedgerAPI) GetNumPendingQueueElements() hexutil.Uint64 {
	return hexutil.Uint64(a.chain.GetNumPendingQueueElements())
}

func (a *LedgerAPI) GetChainCommitment() common.Hash {
	return a.chain.GetChainCommitment()
}

func (a *LedgerAPI) GetState() *ChainStateJson {
	state := a.chain.State()
	return ChainStateToJson(&state)
}

func (a *LedgerAPI) GetQueueElement(index hexutil.Uint64) (*QueueElementJson, error) {
	element, err := a.chain.GetQueueElement(uint64(index))
	if err != nil {
		return nil, err
	}
	return QueueElementToJson(&element), nil
}

func (a *LedgerAPI) GetBatchHeader(index hexutil.Uint64) (*BatchHeaderJson, error) {
	header, err := a.chain.GetBatchHeader(uint64(index))
	if err != nil {
		return nil, err
	}
	return BatchHeaderToJson(&header), nil
}

// VerifyElement returns false, without an error, for a header or proof the
// chain does not accept.
func (a *LedgerAPI) VerifyElement(element ChainElementJson, header BatchHeaderJson, proof ElementProofJson) (bool, error) {
	err := a.chain.VerifyElement(
		ChainElementFromJson(&element),
		BatchHeaderFromJson(&header),
		ledger.ElementProof{Index: uint64(proof.Index), Siblings: proof.Siblings},
	)
	if errors.Is(err, ledger.ErrInvalidBatchHeader) || errors.Is(err, ledger.ErrInvalidElementProof) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *LedgerAPI) Enqueue(req EnqueueRequest) (*ReceiptJson, error) {
	if !a.config.Submissions {
		return nil, ErrSubmissionsDisabled
	}
	sender, err := signature.RecoverSigner(req.SigningHash(), req.Signature)
	if err != nil {
		return nil, err
	}
	a.submitMutex.Lock()
	defer a.submitMutex.Unlock()
	if length := a.chain.GetQueueLength(); uint64(req.QueueIndex) != length {
		return nil, fmt.Errorf("%w: queue index %d, queue length %d", ErrStaleRequest, req.QueueIndex, length)
	}
	// rpc senders hold no gas, so the node grants exactly the burn
	config := a.chain.Config()
	opts := &ledger.CallOpts{From: sender, GasBudget: uint64(req.GasLimit) / config.GasDiscountDivisor}
	receipt, err := a.chain.Enqueue(opts, req.Target, uint64(req.GasLimit), req.Data)
	if err != nil {
		return nil, err
	}
	return ReceiptToJson(receipt)
}

func (a *LedgerAPI) AppendQueueBatch(req QueueBatchRequest) (*ReceiptJson, error) {
	if !a.config.Submissions {
		return nil, ErrSubmissionsDisabled
	}
	sender, err := signature.RecoverSigner(req.SigningHash(), req.Signature)
	if err != nil {
		return nil, err
	}
	a.submitMutex.Lock()
	defer a.submitMutex.Unlock()
	if next := a.chain.GetNextQueueIndex(); uint64(req.StartQueueIndex) != next {
		return nil, fmt.Errorf("%w: start queue index %d, next queue index %d", ErrStaleRequest, req.StartQueueIndex, next)
	}
	receipt, err := a.chain.AppendQueueBatch(&ledger.CallOpts{From: sender}, uint64(req.Count))
	if err != nil {
		return nil, err
	}
	return ReceiptToJson(receipt)
}

func (a *LedgerAPI) AppendSequencerBatch(req SequencerBatchRequest) (*ReceiptJson, error) {
	if !a.config.Submissions {
		return nil, ErrSubmissionsDisabled
	}
	sender, err := signature.RecoverSigner(req.SigningHash(), req.Signature)
	if err != nil {
		return nil, err
	}
	batch, err := batchcodec.Decode(req.Batch)
	if err != nil {
		return nil, err
	}
	receipt, err := a.chain.AppendSequencerBatch(&ledger.CallOpts{From: sender}, batch)
	if err != nil {
		return nil, err
	}
	log.Debug("accepted sequencer batch over rpc", "sender", sender, "start", batch.ShouldStartAtElement, "elements", batch.TotalElementsToAppend)
	return ReceiptToJson(receipt)
}

// AdminAPI updates the address registry of a running node, which is how the
// sequencer is rotated.
type AdminAPI struct {
	registry *ledger.AddressManager
}

func (a *AdminAPI) SetAddress(name string, addr common.Address) error {
	if name == "" {
		return errors.New("empty name")
	}
	a.registry.SetAddress(name, addr)
	return nil
}

func (a *AdminAPI) GetAddress(name string) (common.Address, error) {
	return a.registry.Resolve(name)
}
