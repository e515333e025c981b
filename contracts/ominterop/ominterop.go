// Package ominterop is a hand-maintained, abigen-shaped Go binding for the
// OMInterop contract. It follows the same structure `abigen --abi
// OMInterop.json --pkg ominterop` would produce: a MetaData holder with the
// parsed ABI, a thin wrapper embedding *bind.BoundContract, and one method
// per contract function.
package ominterop

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onemoney-protocol/relayer/bridgeevents"
)

// combinedABI is the subset of the OMInterop ABI the relayer calls into:
// the read/write surface from spec.md §6 plus the event signatures
// bridgeevents needs to decode logs, and the contract's declared custom
// errors used for revert classification (spec.md §7).
const combinedABI = `[
	{"type":"function","name":"getLatestInboundNonce","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
	{"type":"function","name":"getLatestProcessedNonce","stateMutability":"view","inputs":[{"name":"sender","type":"address"}],"outputs":[{"name":"","type":"uint64"}]},
	{"type":"function","name":"getLatestCompletedCheckpoint","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
	{"type":"function","name":"bridgeTo","stateMutability":"nonpayable","inputs":[
		{"name":"from","type":"address"},
		{"name":"bbnonce","type":"uint64"},
		{"name":"dst","type":"address"},
		{"name":"value","type":"uint256"},
		{"name":"dstChainId","type":"uint64"},
		{"name":"escrowFee","type":"uint256"},
		{"name":"token","type":"address"},
		{"name":"checkpointNumber","type":"uint64"},
		{"name":"bridgeData","type":"bytes"},
		{"name":"sourceHash","type":"bytes32"}
	],"outputs":[]},
	{"type":"function","name":"updateCheckpointInfo","stateMutability":"nonpayable","inputs":[
		{"name":"checkpointNumber","type":"uint64"},
		{"name":"txHashes","type":"bytes32[]"}
	],"outputs":[]},
	{"type":"event","name":"Received","anonymous":false,"inputs":[
		{"name":"nonce","type":"uint64","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"omToken","type":"address","indexed":false},
		{"name":"srcChainId","type":"uint64","indexed":false}
	]},
	{"type":"event","name":"Sent","anonymous":false,"inputs":[
		{"name":"nonce","type":"uint64","indexed":true},
		{"name":"from","type":"address","indexed":true},
		{"name":"sourceHash","type":"bytes32","indexed":true},
		{"name":"refundAmount","type":"uint256","indexed":false},
		{"name":"omToken","type":"address","indexed":false},
		{"name":"dstChainId","type":"uint64","indexed":false}
	]},
	{"type":"event","name":"OperatorUpdated","anonymous":false,"inputs":[{"name":"operator","type":"address","indexed":true}]},
	{"type":"event","name":"RelayerUpdated","anonymous":false,"inputs":[{"name":"relayer","type":"address","indexed":true}]},
	{"type":"event","name":"OwnershipTransferred","anonymous":false,"inputs":[{"name":"previousOwner","type":"address","indexed":true},{"name":"newOwner","type":"address","indexed":true}]},
	{"type":"event","name":"RateLimitsChanged","anonymous":false,"inputs":[]},
	{"type":"event","name":"PriceOracleUpdated","anonymous":false,"inputs":[{"name":"oracle","type":"address","indexed":true}]},
	{"type":"event","name":"Initialized","anonymous":false,"inputs":[{"name":"version","type":"uint8","indexed":false}]},
	{"type":"event","name":"Upgraded","anonymous":false,"inputs":[{"name":"implementation","type":"address","indexed":true}]},
	{"type":"error","name":"InvalidNonce","inputs":[{"name":"expected","type":"uint64"},{"name":"got","type":"uint64"}]},
	{"type":"error","name":"NoCompletedCheckpoint","inputs":[]},
	{"type":"error","name":"AlreadyProcessed","inputs":[{"name":"nonce","type":"uint64"}]},
	{"type":"error","name":"Unauthorized","inputs":[{"name":"caller","type":"address"}]}
]`

// MetaData mirrors abigen's per-contract MetaData var: the parsed ABI plus
// the raw JSON it came from.
var MetaData = struct {
	ABI string
}{ABI: combinedABI}

var parsedABI abi.ABI

func init() {
	a, err := abi.JSON(strings.NewReader(combinedABI))
	if err != nil {
		panic("ominterop: invalid embedded ABI: " + err.Error())
	}
	parsedABI = a
}

// ParsedABI exposes the contract's parsed ABI, e.g. for bridgeevents.NewTable.
func ParsedABI() abi.ABI { return parsedABI }

// EventTable is the bridgeevents dispatch table for OMInterop logs.
var EventTable = bridgeevents.NewTable(parsedABI)

// OMInterop is a Go binding around the deployed OMInterop contract.
type OMInterop struct {
	address  common.Address
	contract *bind.BoundContract
}

// New binds a new instance of OMInterop, backed by backend (an
// *ethclient.Client satisfies bind.ContractBackend).
func New(address common.Address, backend bind.ContractBackend) *OMInterop {
	return &OMInterop{
		address:  address,
		contract: bind.NewBoundContract(address, parsedABI, backend, backend, backend),
	}
}

// Address returns the contract's deployed address.
func (o *OMInterop) Address() common.Address { return o.address }

// GetLatestInboundNonce reads the OMInterop contract's authoritative
// inbound-nonce counter (spec.md §3, invariant N1), optionally pinned to a
// historical block via opts.BlockNumber (used by the C9 binary search).
func (o *OMInterop) GetLatestInboundNonce(opts *bind.CallOpts) (uint64, error) {
	var out uint64
	err := o.contract.Call(opts, &[]interface{}{&out}, "getLatestInboundNonce")
	return out, err
}

// GetLatestProcessedNonce reads OMInterop's per-sender bbnonce watermark,
// used by C6 to skip already-processed burn-and-bridge withdrawals.
func (o *OMInterop) GetLatestProcessedNonce(opts *bind.CallOpts, sender common.Address) (uint64, error) {
	var out uint64
	err := o.contract.Call(opts, &[]interface{}{&out}, "getLatestProcessedNonce", sender)
	return out, err
}

// GetLatestCompletedCheckpoint reads the last checkpoint number C6b has
// fully tallied. Reverts with NoCompletedCheckpoint before the first tally.
func (o *OMInterop) GetLatestCompletedCheckpoint(opts *bind.CallOpts) (uint64, error) {
	var out uint64
	err := o.contract.Call(opts, &[]interface{}{&out}, "getLatestCompletedCheckpoint")
	return out, err
}

// BridgeTo submits the withdrawal mint on the sidechain (spec.md §4.C6 step
// 4). bridgeData is always empty today; see DESIGN.md's note on the open
// "bridge_data" question.
func (o *OMInterop) BridgeTo(opts *bind.TransactOpts, from common.Address, bbnonce uint64,
	dst common.Address, value *big.Int, dstChainID uint64, escrowFee *big.Int,
	token common.Address, checkpointNumber uint64, bridgeData []byte,
	sourceHash common.Hash) (*types.Transaction, error) {

	return o.contract.Transact(opts, "bridgeTo", from, bbnonce, dst, value,
		dstChainID, escrowFee, token, checkpointNumber, bridgeData, sourceHash)
}

// UpdateCheckpointInfo records the C6b checkpoint tally before any
// per-transaction processing of that checkpoint begins.
func (o *OMInterop) UpdateCheckpointInfo(opts *bind.TransactOpts, checkpointNumber uint64, txHashes []common.Hash) (*types.Transaction, error) {
	return o.contract.Transact(opts, "updateCheckpointInfo", checkpointNumber, txHashes)
}
