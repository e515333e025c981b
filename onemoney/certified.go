package onemoney

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// subscribeRequest is the message sent to open the certified-transaction
// stream (spec.md §4.C3).
type subscribeRequest struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Stream struct {
		Name string `json:"name"`
		Full bool   `json:"full"`
	} `json:"stream"`
}

// certifiedTransactionResult mirrors the server's per-message envelope: a
// certificate wrapping a user transaction envelope, alongside the tx hash.
type certifiedTransactionResult struct {
	Certificate struct {
		Version string `json:"version"`
		Tx      struct {
			Type     string          `json:"type"`
			Envelope json.RawMessage `json:"envelope"`
		} `json:"tx"`
	} `json:"certificate"`
	TxHash string `json:"tx_hash"`
}

// CertifiedBurnAndBridge is one emission of the certified-transaction
// stream: a decoded TokenBurnAndBridge envelope and its L1 tx hash.
type CertifiedBurnAndBridge struct {
	Payload TokenBurnAndBridgeBody
	TxHash  string
}

// CertifiedTxSubscriber streams L1's certified-transaction WS feed,
// filtered down to TokenBurnAndBridge envelopes (spec.md §4.C3); every
// other envelope variant is dropped silently since only burn-and-bridge
// drives the withdrawal flow.
type CertifiedTxSubscriber struct {
	wsURL string
}

// NewCertifiedTxSubscriber builds a subscriber against the L1 WS endpoint.
func NewCertifiedTxSubscriber(wsURL string) *CertifiedTxSubscriber {
	return &CertifiedTxSubscriber{wsURL: wsURL}
}

// Stream dials the WS endpoint, sends the SUBSCRIBE request, and forwards
// decoded burn-and-bridge envelopes to out until ctx is cancelled, the
// connection closes, or a transport error occurs. Malformed frames are
// logged and skipped; they do not terminate the stream.
func (s *CertifiedTxSubscriber) Stream(ctx context.Context, out chan<- CertifiedBurnAndBridge) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("onemoney: dial certified-tx ws: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	req := subscribeRequest{ID: 1, Method: "SUBSCRIBE"}
	req.Stream.Name = "CERTIFIED_TRANSACTIONS"
	req.Stream.Full = true

	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("onemoney: send subscribe: %w", err)
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("onemoney: certified-tx read: %w", err)
		}

		var result certifiedTransactionResult
		if err := json.Unmarshal(message, &result); err != nil {
			oneyLog.Warnf("malformed certified transaction message, skipping: %v", err)
			continue
		}

		if result.Certificate.Tx.Type != TxKindTokenBurnAndBridge {
			continue
		}

		var body TokenBurnAndBridgeBody
		if err := json.Unmarshal(result.Certificate.Tx.Envelope, &body); err != nil {
			oneyLog.Warnf("malformed burn-and-bridge envelope, skipping tx_hash=%s: %v", result.TxHash, err)
			continue
		}

		select {
		case out <- CertifiedBurnAndBridge{Payload: body, TxHash: result.TxHash}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
