// Package validatormanager is a hand-maintained, abigen-shaped Go binding
// for the ValidatorManager contract that PoA validator-set mirroring (C8)
// reads from and writes to. It lives at a well-known, fixed address on the
// sidechain rather than one supplied on the command line (spec.md §6).
package validatormanager

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const combinedABI = `[
	{"type":"function","name":"getValidators","stateMutability":"view","inputs":[],"outputs":[
		{"name":"keys","type":"tuple[]","components":[{"name":"x","type":"uint256"},{"name":"y","type":"uint256"}]},
		{"name":"powers","type":"uint64[]"}
	]},
	{"type":"function","name":"addAndRemove","stateMutability":"nonpayable","inputs":[
		{"name":"addKeys","type":"tuple[]","components":[{"name":"x","type":"uint256"},{"name":"y","type":"uint256"}]},
		{"name":"addPowers","type":"uint64[]"},
		{"name":"removeKeys","type":"tuple[]","components":[{"name":"x","type":"uint256"},{"name":"y","type":"uint256"}]}
	],"outputs":[]}
]`

var parsedABI abi.ABI

func init() {
	a, err := abi.JSON(strings.NewReader(combinedABI))
	if err != nil {
		panic("validatormanager: invalid embedded ABI: " + err.Error())
	}
	parsedABI = a
}

// ParsedABI exposes the contract's parsed ABI.
func ParsedABI() abi.ABI { return parsedABI }

// Secp256k1Key is an uncompressed secp256k1 public key point, the form the
// PoA validator set is keyed by on both chains.
type Secp256k1Key struct {
	X *big.Int
	Y *big.Int
}

// ValidatorInfo pairs a validator's key with its voting power.
type ValidatorInfo struct {
	Key   Secp256k1Key
	Power uint64
}

// ValidatorManager is a Go binding around the deployed ValidatorManager
// contract.
type ValidatorManager struct {
	address  common.Address
	contract *bind.BoundContract
}

// New binds a new instance of ValidatorManager.
func New(address common.Address, backend bind.ContractBackend) *ValidatorManager {
	return &ValidatorManager{
		address:  address,
		contract: bind.NewBoundContract(address, parsedABI, backend, backend, backend),
	}
}

// Address returns the contract's deployed address.
func (v *ValidatorManager) Address() common.Address { return v.address }

// GetValidators reads the full current validator set.
func (v *ValidatorManager) GetValidators(opts *bind.CallOpts) ([]ValidatorInfo, error) {
	var raw struct {
		Keys   []Secp256k1Key
		Powers []uint64
	}
	err := v.contract.Call(opts, &[]interface{}{&raw.Keys, &raw.Powers}, "getValidators")
	if err != nil {
		return nil, err
	}

	out := make([]ValidatorInfo, len(raw.Keys))
	for i := range raw.Keys {
		out[i] = ValidatorInfo{Key: raw.Keys[i], Power: raw.Powers[i]}
	}
	return out, nil
}

// AddAndRemove applies the diff C8 computes between the mirrored source set
// and the sidechain's current set: keys in add are upserted with the given
// powers, keys in remove are dropped entirely.
func (v *ValidatorManager) AddAndRemove(opts *bind.TransactOpts, add []ValidatorInfo, remove []Secp256k1Key) (*types.Transaction, error) {
	addKeys := make([]Secp256k1Key, len(add))
	addPowers := make([]uint64, len(add))
	for i, info := range add {
		addKeys[i] = info.Key
		addPowers[i] = info.Power
	}
	return v.contract.Transact(opts, "addAndRemove", addKeys, addPowers, remove)
}
