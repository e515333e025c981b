// Package onemoney implements the REST and WebSocket clients for the
// primary ledger ("L1" / "1Money" in spec.md's glossary): epoch and
// checkpoint polling (C2), the certified-transaction WS subscription (C3),
// and signed payload submission.
package onemoney

import (
	"encoding/json"

	"github.com/btcsuite/btclog"
)

var oneyLog = btclog.Disabled

// UseLogger sets the package-wide logger used by onemoney.
func UseLogger(logger btclog.Logger) {
	oneyLog = logger
}

// ValidatorMember is one entry of an epoch's validator_set.members array.
type ValidatorMember struct {
	ConsensusPublicKey string `json:"consensus_public_key"`
	Address            string `json:"address"`
	PeerID             string `json:"peer_id"`
	Archive            bool   `json:"archive"`
}

// ValidatorSet is the epoch's { members: [...] } wrapper.
type ValidatorSet struct {
	Members []ValidatorMember `json:"members"`
}

// certificateProposal is the common shape both Genesis and Epoch certificate
// variants carry: a proposal message holding the validator set.
type certificateProposal struct {
	Message struct {
		ValidatorSet ValidatorSet `json:"validator_set"`
	} `json:"message"`
}

// certificate is the tagged {type, proposal} envelope around a proposal.
type certificate struct {
	Type     string              `json:"type"`
	Proposal certificateProposal `json:"proposal"`
}

// Epoch mirrors the GET /v1/governances/epoch response body.
type Epoch struct {
	EpochID         uint64      `json:"epoch_id"`
	CertificateHash string      `json:"certificate_hash"`
	Certificate     certificate `json:"certificate"`
}

// Validators extracts the epoch's validator set regardless of which
// certificate variant (Genesis or Epoch) carried it; both shapes nest it at
// the same path (spec.md §4.C2).
func (e Epoch) Validators() []ValidatorMember {
	return e.Certificate.Proposal.Message.ValidatorSet.Members
}

// TransactionData is the tagged union of L1 transaction payload kinds a
// checkpoint transaction record carries.
type TransactionData struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// TokenBurnAndBridgeBody is the decoded body of a TokenBurnAndBridge
// transaction, the only checkpoint transaction kind C6's polling path acts
// on.
type TokenBurnAndBridgeBody struct {
	Sender      string `json:"sender"`
	Value       string `json:"value"`
	EscrowFee   string `json:"escrow_fee"`
	DstChainID  uint64 `json:"dst_chain_id"`
	DstAddress  string `json:"dst_address"`
	Token       string `json:"token"`
}

// TokenBridgeAndMintBody is the decoded body of a TokenBridgeAndMint
// transaction, used by C9's incomplete-deposit sweep to match candidates by
// (nonce, recipient).
type TokenBridgeAndMintBody struct {
	Nonce         uint64 `json:"nonce"`
	Recipient     string `json:"recipient"`
	Value         string `json:"value"`
	Token         string `json:"token"`
	SourceChainID uint64 `json:"source_chain_id"`
	SourceTxHash  string `json:"source_tx_hash"`
}

// TokenTransferBody is the decoded body of a TokenTransfer transaction,
// used by C9's incomplete-refund sweep to match candidates by
// (nonce, value, token, recipient).
type TokenTransferBody struct {
	Nonce     uint64 `json:"nonce"`
	Recipient string `json:"recipient"`
	Value     string `json:"value"`
	Token     string `json:"token"`
}

// Transaction is one entry of a checkpoint's transactions array. A
// checkpoint whose transactions come back as bare hash strings never
// produces Transaction values: Client.CheckpointByNumber rejects it with
// ErrHashOnlyCheckpoint (spec.md §4.C2).
type Transaction struct {
	Hash             string          `json:"hash"`
	CheckpointNumber uint64          `json:"checkpoint_number"`
	Nonce            uint64          `json:"nonce"`
	From             string          `json:"from"`
	Data             TransactionData `json:"data"`
	Signature        string          `json:"signature"`
}

// Checkpoint mirrors the GET /v1/checkpoints/by_number response body.
type Checkpoint struct {
	Number           uint64        `json:"number"`
	Hash             string        `json:"hash"`
	ParentHash       string        `json:"parent_hash"`
	Transactions     []Transaction `json:"transactions"`
	HashOnlyRejected bool          `json:"-"`
}

// TransactionReceipt mirrors /v1/transactions/receipt_by_hash, carrying the
// bbnonce the withdrawal flow (C6) needs out of success_info.bridge_info.
type TransactionReceipt struct {
	Hash        string `json:"hash"`
	SuccessInfo struct {
		BridgeInfo struct {
			BBNonce uint64 `json:"bbnonce"`
		} `json:"bridge_info"`
	} `json:"success_info"`
}

const (
	TxKindTokenTransfer        = "TokenTransfer"
	TxKindTokenMint            = "TokenMint"
	TxKindTokenCreate          = "TokenCreate"
	TxKindTokenGrantAuthority  = "TokenGrantAuthority"
	TxKindTokenBridgeAndMint   = "TokenBridgeAndMint"
	TxKindTokenBurnAndBridge   = "TokenBurnAndBridge"
)
