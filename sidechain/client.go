package sidechain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/onemoney-protocol/relayer/config"
	"github.com/onemoney-protocol/relayer/contracts/ominterop"
	"github.com/onemoney-protocol/relayer/contracts/txhashmapping"
	"github.com/onemoney-protocol/relayer/contracts/validatormanager"
)

// Client bundles the sidechain JSON-RPC connections and contract bindings
// every flow needs: the HTTP client used for sending transactions and
// reading state, the WS client used for the C1 live log subscription, and
// the three bound contracts (spec.md §6).
type Client struct {
	HTTP *ethclient.Client
	WS   *ethclient.Client

	OMInterop         *ominterop.OMInterop
	TxHashMapping     *txhashmapping.TxHashMapping
	ValidatorManager  *validatormanager.ValidatorManager

	chainID    *big.Int
	privateKey *ecdsa.PrivateKey
	address    common.Address
	nonces     *NonceAllocator
}

// Dial connects to the sidechain's HTTP and WS JSON-RPC endpoints and binds
// the three relayer contracts against the HTTP client, mirroring the
// teacher's chainControl: one struct bundling every per-chain handle a flow
// needs instead of threading raw clients through each flow's constructor.
func Dial(ctx context.Context, httpURL, wsURL string, interopAddr, mappingAddr common.Address,
	key *ecdsa.PrivateKey) (*Client, error) {

	httpClient, err := ethclient.DialContext(ctx, httpURL)
	if err != nil {
		return nil, fmt.Errorf("sidechain: dial http: %w", err)
	}

	wsClient, err := ethclient.DialContext(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("sidechain: dial ws: %w", err)
	}

	chainID, err := httpClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("sidechain: fetch chain id: %w", err)
	}

	address := crypto.PubkeyToAddress(key.PublicKey)

	pendingNonce, err := httpClient.PendingNonceAt(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("sidechain: fetch pending nonce: %w", err)
	}

	c := &Client{
		HTTP:             httpClient,
		WS:               wsClient,
		OMInterop:        ominterop.New(interopAddr, httpClient),
		TxHashMapping:    txhashmapping.New(mappingAddr, httpClient),
		ValidatorManager: validatormanager.New(config.ValidatorManagerAddress, httpClient),
		chainID:          chainID,
		privateKey:       key,
		address:          address,
		nonces:           NewNonceAllocator(pendingNonce),
	}

	sidcLog.Infof("connected to sidechain chain_id=%s relayer=%s starting_nonce=%d",
		chainID, address.Hex(), pendingNonce)

	return c, nil
}

// Address returns the relayer's sidechain account address.
func (c *Client) Address() common.Address { return c.address }

// Nonces exposes the shared nonce allocator (spec.md §4.C4) so flows can
// reserve and roll back nonces around their submissions.
func (c *Client) Nonces() *NonceAllocator { return c.nonces }

// TransactOpts builds signing options for a new transaction, pre-loaded
// with the next allocated nonce. Callers must Rollback the nonce if the
// resulting transaction is never broadcast.
func (c *Client) TransactOpts(ctx context.Context) (*bind.TransactOpts, uint64, error) {
	gasPrice, err := c.HTTP.SuggestGasPrice(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("sidechain: suggest gas price: %w", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return nil, 0, fmt.Errorf("sidechain: build transactor: %w", err)
	}

	nonce := c.nonces.Allocate()
	opts.Context = ctx
	opts.Nonce = new(big.Int).SetUint64(nonce)
	opts.GasPrice = gasPrice

	return opts, nonce, nil
}

// WaitMined blocks until the transaction is mined and returns its receipt,
// the same poll-for-receipt idiom the teacher's on-chain resolvers use
// around confirmation waits (contractcourt/htlc_timeout_resolver.go).
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, c.HTTP, tx)
}
