package onemoney

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrTransactionAlreadyExists is returned when L1 rejects a submission as a
// business-logic duplicate. spec.md §7 treats this as idempotent success:
// callers should log a warning and continue rather than failing the flow.
var ErrTransactionAlreadyExists = errors.New("onemoney: transaction already exists")

// ErrHashOnlyCheckpoint is returned when a checkpoint's transactions array
// came back as bare hash strings instead of full records; spec.md §4.C2
// treats that shape as a hard error.
var ErrHashOnlyCheckpoint = errors.New("onemoney: checkpoint returned hash-only transactions")

// ErrCheckpointNotProduced is returned on a 404 from /v1/checkpoints/by_number,
// meaning the checkpoint hasn't been produced yet (spec.md §4.C2: retry the
// same number on the next tick, this is not a failure).
var ErrCheckpointNotProduced = errors.New("onemoney: checkpoint not yet produced")

// Client is a thin REST client over the L1 node's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client against baseURL (e.g. "http://127.0.0.1:18555").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("onemoney: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCheckpointNotProduced
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("onemoney: GET %s: unexpected status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("onemoney: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return ErrTransactionAlreadyExists
	}
	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "transaction already exists" {
			return ErrTransactionAlreadyExists
		}
		return fmt.Errorf("onemoney: POST %s: unexpected status %d: %s", path, resp.StatusCode, errBody.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Epoch fetches the current epoch.
func (c *Client) Epoch(ctx context.Context) (Epoch, error) {
	var e Epoch
	err := c.get(ctx, "/v1/governances/epoch", nil, &e)
	return e, err
}

// CheckpointByNumber fetches a single checkpoint with full transaction
// records. ErrCheckpointNotProduced signals a 404 (not yet produced);
// ErrHashOnlyCheckpoint signals the server returned bare hashes.
func (c *Client) CheckpointByNumber(ctx context.Context, number uint64) (Checkpoint, error) {
	var raw struct {
		Number       uint64          `json:"number"`
		Hash         string          `json:"hash"`
		ParentHash   string          `json:"parent_hash"`
		Transactions json.RawMessage `json:"transactions"`
	}

	query := url.Values{"number": {strconv.FormatUint(number, 10)}, "full": {"true"}}
	if err := c.get(ctx, "/v1/checkpoints/by_number", query, &raw); err != nil {
		return Checkpoint{}, err
	}

	cp := Checkpoint{Number: raw.Number, Hash: raw.Hash, ParentHash: raw.ParentHash}

	var txs []Transaction
	if err := json.Unmarshal(raw.Transactions, &txs); err == nil {
		cp.Transactions = txs
		return cp, nil
	}

	var hashesOnly []string
	if err := json.Unmarshal(raw.Transactions, &hashesOnly); err == nil {
		return Checkpoint{}, ErrHashOnlyCheckpoint
	}

	return Checkpoint{}, fmt.Errorf("onemoney: checkpoint %d: unrecognized transactions shape", number)
}

// AccountNonce fetches the relayer's current L1 transaction nonce.
func (c *Client) AccountNonce(ctx context.Context, address string) (uint64, error) {
	var out struct {
		Nonce uint64 `json:"nonce"`
	}
	err := c.get(ctx, "/v1/accounts/nonce", url.Values{"address": {address}}, &out)
	return out.Nonce, err
}

// AccountBBNonce fetches an account's current burn-and-bridge nonce.
func (c *Client) AccountBBNonce(ctx context.Context, address string) (uint64, error) {
	var out struct {
		BBNonce uint64 `json:"bbnonce"`
	}
	err := c.get(ctx, "/v1/accounts/bbnonce", url.Values{"address": {address}}, &out)
	return out.BBNonce, err
}

// TransactionReceiptByHash fetches a transaction's receipt, used by C6 step
// 2 to recover the just-consumed bbnonce.
func (c *Client) TransactionReceiptByHash(ctx context.Context, hash string) (TransactionReceipt, error) {
	var out TransactionReceipt
	err := c.get(ctx, "/v1/transactions/receipt_by_hash", url.Values{"hash": {hash}}, &out)
	return out, err
}

// submitResponse is the common {hash} response shape every /v1/tokens/*
// submission endpoint returns.
type submitResponse struct {
	Hash string `json:"hash"`
}

// submitEnvelope is the common {payload, signature} request shape every
// /v1/tokens/* submission endpoint expects.
type submitEnvelope struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

func (c *Client) submit(ctx context.Context, path string, signed SignedPayload) (string, error) {
	env := submitEnvelope{
		Payload:   signed.PayloadJSON,
		Signature: "0x" + hex.EncodeToString(signed.Signature),
	}
	var out submitResponse
	err := c.post(ctx, path, env, &out)
	return out.Hash, err
}

// SubmitBridgeAndMint submits a mint payload for a SC->L1 deposit (C5 step 4).
func (c *Client) SubmitBridgeAndMint(ctx context.Context, signed SignedPayload) (string, error) {
	return c.submit(ctx, "/v1/tokens/bridge_and_mint", signed)
}

// SubmitPayment submits a refund/withdrawal payment payload (C5/C7).
func (c *Client) SubmitPayment(ctx context.Context, signed SignedPayload) (string, error) {
	return c.submit(ctx, "/v1/tokens/payments", signed)
}
