// Package txhashmapping is a hand-maintained, abigen-shaped Go binding for
// the TxHashMapping contract: the register -> submit -> link ledger C11's
// façade enforces (spec.md §4.C11).
package txhashmapping

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const combinedABI = `[
	{"type":"function","name":"registerDeposit","stateMutability":"nonpayable","inputs":[
		{"name":"bridgeFrom","type":"bytes32"}
	],"outputs":[]},
	{"type":"function","name":"linkDepositHashes","stateMutability":"nonpayable","inputs":[
		{"name":"bridgeFrom","type":"bytes32"},{"name":"bridgeTo","type":"bytes32"}
	],"outputs":[]},
	{"type":"function","name":"registerWithdrawal","stateMutability":"nonpayable","inputs":[
		{"name":"sourceHash","type":"bytes32"}
	],"outputs":[]},
	{"type":"function","name":"linkWithdrawalHashes","stateMutability":"nonpayable","inputs":[
		{"name":"sourceHash","type":"bytes32"},{"name":"bridgeTo","type":"bytes32"}
	],"outputs":[]},
	{"type":"function","name":"linkRefundHashes","stateMutability":"nonpayable","inputs":[
		{"name":"sourceHash","type":"bytes32"},{"name":"refundTo","type":"bytes32"}
	],"outputs":[]},
	{"type":"function","name":"incompleteDeposits","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32[]"}]},
	{"type":"function","name":"incompleteWithdrawals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32[]"}]},
	{"type":"function","name":"incompleteRefunds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32[]"}]},
	{"type":"function","name":"getDepositByBridgeFrom","stateMutability":"view","inputs":[
		{"name":"bridgeFrom","type":"bytes32"}
	],"outputs":[{"name":"bridgeTo","type":"bytes32"},{"name":"linked","type":"bool"},{"name":"isSet","type":"bool"}]},
	{"type":"function","name":"getWithdrawal","stateMutability":"view","inputs":[
		{"name":"sourceHash","type":"bytes32"}
	],"outputs":[{"name":"bridgeTo","type":"bytes32"},{"name":"refundTo","type":"bytes32"},{"name":"isSet","type":"bool"}]},
	{"type":"error","name":"AlreadyRegistered","inputs":[{"name":"key","type":"bytes32"}]},
	{"type":"error","name":"AlreadyLinked","inputs":[{"name":"key","type":"bytes32"}]},
	{"type":"error","name":"NotRegistered","inputs":[{"name":"key","type":"bytes32"}]},
	{"type":"error","name":"Unauthorized","inputs":[{"name":"caller","type":"address"}]}
]`

var parsedABI abi.ABI

func init() {
	a, err := abi.JSON(strings.NewReader(combinedABI))
	if err != nil {
		panic("txhashmapping: invalid embedded ABI: " + err.Error())
	}
	parsedABI = a
}

// ParsedABI exposes the contract's parsed ABI.
func ParsedABI() abi.ABI { return parsedABI }

// Known revert reasons the contract declares. C11 classifies a contract
// revert against this table before falling back to a generic transport
// error (spec.md §7).
var (
	ErrAlreadyRegistered = errors.New("txhashmapping: already registered")
	ErrAlreadyLinked     = errors.New("txhashmapping: already linked")
	ErrNotRegistered     = errors.New("txhashmapping: not registered")
	ErrUnauthorized      = errors.New("txhashmapping: unauthorized caller")
)

// ClassifyRevert maps a decoded Solidity custom-error name to one of the
// sentinel errors above. An unrecognized name means the revert reason is
// something the contract's ABI doesn't declare, and the caller should treat
// it as a generic, non-retriable transport failure instead.
func ClassifyRevert(name string) (error, bool) {
	switch name {
	case "AlreadyRegistered":
		return ErrAlreadyRegistered, true
	case "AlreadyLinked":
		return ErrAlreadyLinked, true
	case "NotRegistered":
		return ErrNotRegistered, true
	case "Unauthorized":
		return ErrUnauthorized, true
	default:
		return nil, false
	}
}

// DepositRecord mirrors the getDepositByBridgeFrom return tuple. Linked is
// true once BridgeTo has been set by linkDepositHashes; IsSet is true once
// registerDeposit has been called at all (spec.md §3 invariant M1).
type DepositRecord struct {
	BridgeTo common.Hash
	Linked   bool
	IsSet    bool
}

// WithdrawalRecord mirrors the getWithdrawal return tuple.
type WithdrawalRecord struct {
	BridgeTo common.Hash
	RefundTo common.Hash
	IsSet    bool
}

// TxHashMapping is a Go binding around the deployed TxHashMapping contract.
type TxHashMapping struct {
	address  common.Address
	contract *bind.BoundContract
}

// New binds a new instance of TxHashMapping.
func New(address common.Address, backend bind.ContractBackend) *TxHashMapping {
	return &TxHashMapping{
		address:  address,
		contract: bind.NewBoundContract(address, parsedABI, backend, backend, backend),
	}
}

// Address returns the contract's deployed address.
func (m *TxHashMapping) Address() common.Address { return m.address }

// RegisterDeposit is the first step of C11's deposit flow: reserve
// bridgeFrom before any submission is attempted.
func (m *TxHashMapping) RegisterDeposit(opts *bind.TransactOpts, bridgeFrom common.Hash) (*types.Transaction, error) {
	return m.contract.Transact(opts, "registerDeposit", bridgeFrom)
}

// LinkDepositHashes closes out a registered deposit once the L1 mint has
// been submitted and observed.
func (m *TxHashMapping) LinkDepositHashes(opts *bind.TransactOpts, bridgeFrom, bridgeTo common.Hash) (*types.Transaction, error) {
	return m.contract.Transact(opts, "linkDepositHashes", bridgeFrom, bridgeTo)
}

// RegisterWithdrawal is C11's withdrawal-flow analog of RegisterDeposit.
func (m *TxHashMapping) RegisterWithdrawal(opts *bind.TransactOpts, sourceHash common.Hash) (*types.Transaction, error) {
	return m.contract.Transact(opts, "registerWithdrawal", sourceHash)
}

// LinkWithdrawalHashes closes out a registered withdrawal once bridgeTo on
// the sidechain has been submitted and observed.
func (m *TxHashMapping) LinkWithdrawalHashes(opts *bind.TransactOpts, sourceHash, bridgeTo common.Hash) (*types.Transaction, error) {
	return m.contract.Transact(opts, "linkWithdrawalHashes", sourceHash, bridgeTo)
}

// LinkRefundHashes closes out a registered withdrawal by refund instead of
// a completed bridge (spec.md §4.C7).
func (m *TxHashMapping) LinkRefundHashes(opts *bind.TransactOpts, sourceHash, refundTo common.Hash) (*types.Transaction, error) {
	return m.contract.Transact(opts, "linkRefundHashes", sourceHash, refundTo)
}

// IncompleteDeposits lists every bridgeFrom registered but never linked,
// the sweep set C9's startup reconciliation links.
func (m *TxHashMapping) IncompleteDeposits(opts *bind.CallOpts) ([]common.Hash, error) {
	var out []common.Hash
	err := m.contract.Call(opts, &[]interface{}{&out}, "incompleteDeposits")
	return out, err
}

// IncompleteWithdrawals lists every sourceHash registered but never linked.
func (m *TxHashMapping) IncompleteWithdrawals(opts *bind.CallOpts) ([]common.Hash, error) {
	var out []common.Hash
	err := m.contract.Call(opts, &[]interface{}{&out}, "incompleteWithdrawals")
	return out, err
}

// IncompleteRefunds lists every sourceHash registered for refund but never
// linked.
func (m *TxHashMapping) IncompleteRefunds(opts *bind.CallOpts) ([]common.Hash, error) {
	var out []common.Hash
	err := m.contract.Call(opts, &[]interface{}{&out}, "incompleteRefunds")
	return out, err
}

// GetDepositByBridgeFrom reads back a deposit's registration record.
func (m *TxHashMapping) GetDepositByBridgeFrom(opts *bind.CallOpts, bridgeFrom common.Hash) (DepositRecord, error) {
	var out DepositRecord
	err := m.contract.Call(opts, &[]interface{}{&out.BridgeTo, &out.Linked, &out.IsSet}, "getDepositByBridgeFrom", bridgeFrom)
	return out, err
}

// GetWithdrawal reads back a withdrawal's registration record.
func (m *TxHashMapping) GetWithdrawal(opts *bind.CallOpts, sourceHash common.Hash) (WithdrawalRecord, error) {
	var out WithdrawalRecord
	err := m.contract.Call(opts, &[]interface{}{&out.BridgeTo, &out.RefundTo, &out.IsSet}, "getWithdrawal", sourceHash)
	return out, err
}
