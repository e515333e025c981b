package onemoney

import (
	"crypto/ecdsa"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// BridgeAndMintPayload is the deposit-mint submission body (spec.md §4.C5
// step 4). BridgeMetadata is always nil today; see DESIGN.md's note on the
// "bridge_data" open question for the equivalent field on the SC side.
type BridgeAndMintPayload struct {
	ChainID        uint64   `json:"chain_id"`
	Nonce          uint64   `json:"nonce"`
	Recipient      string   `json:"recipient"`
	Value          *big.Int `json:"value"`
	Token          string   `json:"token"`
	SourceChainID  uint64   `json:"source_chain_id"`
	SourceTxHash   string   `json:"source_tx_hash"`
	BridgeMetadata []byte   `json:"bridge_metadata"`
}

// PaymentPayload is the refund/withdrawal-fee payment submission body
// (spec.md §4.C5/C7).
type PaymentPayload struct {
	ChainID   uint64   `json:"chain_id"`
	Nonce     uint64   `json:"nonce"`
	Recipient string   `json:"recipient"`
	Value     *big.Int `json:"value"`
	Token     string   `json:"token"`
}

// SignedPayload bundles a payload's canonical JSON encoding with the
// signature produced over its RLP/keccak256 digest, ready for submission.
type SignedPayload struct {
	PayloadJSON json.RawMessage
	Signature   []byte
}

// signPayload RLP-encodes fields in declaration order, keccak256-hashes the
// result, and produces a secp256k1 signature over the digest.
func signPayload(key *ecdsa.PrivateKey, body interface{}, fields []interface{}) (SignedPayload, error) {
	encoded, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return SignedPayload{}, err
	}

	digest := crypto.Keccak256(encoded)

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return SignedPayload{}, err
	}

	payloadJSON, err := json.Marshal(body)
	if err != nil {
		return SignedPayload{}, err
	}

	return SignedPayload{PayloadJSON: payloadJSON, Signature: sig}, nil
}

// SignBridgeAndMint signs a BridgeAndMintPayload for submission.
func SignBridgeAndMint(key *ecdsa.PrivateKey, p BridgeAndMintPayload) (SignedPayload, error) {
	metadata := p.BridgeMetadata
	if metadata == nil {
		metadata = []byte{}
	}
	fields := []interface{}{
		p.ChainID, p.Nonce, p.Recipient, p.Value, p.Token,
		p.SourceChainID, p.SourceTxHash, metadata,
	}
	return signPayload(key, p, fields)
}

// SignPayment signs a PaymentPayload for submission.
func SignPayment(key *ecdsa.PrivateKey, p PaymentPayload) (SignedPayload, error) {
	fields := []interface{}{p.ChainID, p.Nonce, p.Recipient, p.Value, p.Token}
	return signPayload(key, p, fields)
}
