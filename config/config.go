// Package config parses and validates the flags and environment variables
// shared by every relayer subcommand.
package config

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli"
)

// Config holds the parsed, validated settings shared across the
// proof-of-authority, sidechain, onemoney and all subcommands. It is built
// once in main and handed down to the supervisor.
type Config struct {
	OneMoneyNodeURL string
	OneMoneyWSURL   string
	SideChainHTTPURL string
	SideChainWSURL   string

	InteropContractAddress     common.Address
	TxMappingContractAddress   common.Address

	RelayerPrivateKeyHex string
	RelayerPrivateKey    *ecdsa.PrivateKey
	RelayerAddress       common.Address

	// SelfFundFees holds the --self-fund-fees flag (see DESIGN.md, "fee
	// accounting"). It is parsed here but no flow reads it: the relayer
	// performs no self-funding transfer whether it is set or not.
	SelfFundFees bool

	// L1NonceWaitCeiling bounds how long the deposit/refund nonce-admission
	// guard (spec.md §4.C5 step 2) will poll L1 for a lagging nonce before
	// surfacing a fatal error, closing the open question in spec.md §9.
	L1NonceWaitCeiling time.Duration

	// OneMoneyChainID is 1Money's own chain_id, carried in every signed
	// TokenBridgeAndMint/Payment payload for L1-side replay protection
	// (spec.md §4.C5 step 4). It is distinct from src_chain_id/dst_chain_id,
	// which identify the sidechain side of a given transfer.
	OneMoneyChainID uint64
}

// Flags shared by every subcommand. Each flag spec.md §6 lists carries its
// EnvVar so it is settable from either the command line or the environment,
// matching the teacher's cmd/lncli flag conventions; --self-fund-fees and
// --l1-nonce-wait-ceiling are command-line only.
var SharedFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "one-money-node-url",
		Value:  "http://127.0.0.1:18555",
		EnvVar: "OM_NODE_URL",
		Usage:  "HTTP URL of the 1Money (L1) REST endpoint",
	},
	cli.StringFlag{
		Name:   "one-money-ws-url",
		EnvVar: "OM_WS_URL",
		Usage:  "WebSocket URL of the 1Money (L1) node",
	},
	cli.StringFlag{
		Name:   "side-chain-http-url",
		Value:  "http://127.0.0.1:8545",
		EnvVar: "SC_NODE_URL",
		Usage:  "HTTP JSON-RPC URL of the sidechain node",
	},
	cli.StringFlag{
		Name:   "side-chain-ws-url",
		EnvVar: "SC_WS_URL",
		Usage:  "WebSocket JSON-RPC URL of the sidechain node",
	},
	cli.StringFlag{
		Name:   "interop-contract-address",
		EnvVar: "INTEROP_CONTRACT_ADDRESS",
		Usage:  "20-byte hex address of the OMInterop contract",
	},
	cli.StringFlag{
		Name:   "tx-mapping-contract-address",
		EnvVar: "TX_MAPPING_CONTRACT_ADDRESS",
		Usage:  "20-byte hex address of the TxHashMapping contract",
	},
	cli.StringFlag{
		Name:   "relayer-private-key",
		EnvVar: "RELAYER_PRIVATE_KEY",
		Usage:  "hex-encoded secp256k1 private key for the relayer account",
	},
	cli.BoolFlag{
		Name:  "self-fund-fees",
		Usage: "accepted and parsed; currently has no effect (the relayer performs no self-funding transfer)",
	},
	cli.DurationFlag{
		Name:  "l1-nonce-wait-ceiling",
		Value: 0,
		Usage: "cap on how long to poll L1 for a lagging relayer nonce before failing fatally (0 = unbounded, not recommended)",
	},
	cli.Uint64Flag{
		Name:   "one-money-chain-id",
		EnvVar: "OM_CHAIN_ID",
		Usage:  "1Money's own chain_id, carried in signed L1 payloads for replay protection",
	},
}

// FromCLI builds and validates a Config from a urfave/cli context whose app
// has SharedFlags attached as global flags; it reads them through the
// Global* accessors, so it works from inside any subcommand such as "all".
func FromCLI(ctx *cli.Context) (*Config, error) {
	cfg := &Config{
		OneMoneyNodeURL:      ctx.GlobalString("one-money-node-url"),
		OneMoneyWSURL:        ctx.GlobalString("one-money-ws-url"),
		SideChainHTTPURL:     ctx.GlobalString("side-chain-http-url"),
		SideChainWSURL:       ctx.GlobalString("side-chain-ws-url"),
		RelayerPrivateKeyHex: ctx.GlobalString("relayer-private-key"),
		SelfFundFees:         ctx.GlobalBool("self-fund-fees"),
		L1NonceWaitCeiling:   ctx.GlobalDuration("l1-nonce-wait-ceiling"),
		OneMoneyChainID:      ctx.GlobalUint64("one-money-chain-id"),
	}

	interopHex := ctx.GlobalString("interop-contract-address")
	if interopHex == "" {
		return nil, fmt.Errorf("--interop-contract-address is required")
	}
	if !common.IsHexAddress(interopHex) {
		return nil, fmt.Errorf("--interop-contract-address %q is not a valid address", interopHex)
	}
	cfg.InteropContractAddress = common.HexToAddress(interopHex)

	mappingHex := ctx.GlobalString("tx-mapping-contract-address")
	if mappingHex == "" {
		return nil, fmt.Errorf("--tx-mapping-contract-address is required")
	}
	if !common.IsHexAddress(mappingHex) {
		return nil, fmt.Errorf("--tx-mapping-contract-address %q is not a valid address", mappingHex)
	}
	cfg.TxMappingContractAddress = common.HexToAddress(mappingHex)

	if cfg.RelayerPrivateKeyHex == "" {
		return nil, fmt.Errorf("--relayer-private-key is required")
	}
	key, err := crypto.HexToECDSA(trimHexPrefix(cfg.RelayerPrivateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("invalid --relayer-private-key: %w", err)
	}
	cfg.RelayerPrivateKey = key
	cfg.RelayerAddress = crypto.PubkeyToAddress(key.PublicKey)

	return cfg, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// ValidatorManagerAddress is the well-known deployment address of the
// ValidatorManager contract on the sidechain (spec.md §6).
var ValidatorManagerAddress = common.HexToAddress("0x0000000000000000000000000000000000002000")
