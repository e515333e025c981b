package onemoney

import (
	"encoding/json"
	"testing"
)

func TestFilterBurnAndBridgeKeepsOnlyMatchingKind(t *testing.T) {
	txs := []Transaction{
		{Hash: "0x1", Data: TransactionData{Type: TxKindTokenTransfer}},
		{Hash: "0x2", Data: TransactionData{Type: TxKindTokenBurnAndBridge}},
		{Hash: "0x3", Data: TransactionData{Type: TxKindTokenMint}},
		{Hash: "0x4", Data: TransactionData{Type: TxKindTokenBurnAndBridge}},
	}

	got := filterBurnAndBridge(txs)
	if len(got) != 2 {
		t.Fatalf("filterBurnAndBridge() returned %d txs, want 2", len(got))
	}
	if got[0].Hash != "0x2" || got[1].Hash != "0x4" {
		t.Fatalf("filterBurnAndBridge() = %+v, want hashes 0x2, 0x4", got)
	}
}

func TestFilterBurnAndBridgeEmptyInputYieldsEmptyOutput(t *testing.T) {
	got := filterBurnAndBridge(nil)
	if len(got) != 0 {
		t.Fatalf("filterBurnAndBridge(nil) = %+v, want empty", got)
	}
}

func TestEpochValidatorsReadsNestedPath(t *testing.T) {
	raw := `{
		"epoch_id": 3,
		"certificate_hash": "0xabc",
		"certificate": {
			"type": "Epoch",
			"proposal": {"message": {"validator_set": {"members": [
				{"consensus_public_key": "0xdead", "address": "0x1", "peer_id": "p1", "archive": false}
			]}}}
		}
	}`

	var e Epoch
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal epoch: %v", err)
	}

	members := e.Validators()
	if len(members) != 1 || members[0].Address != "0x1" {
		t.Fatalf("Validators() = %+v, want one member with address 0x1", members)
	}
}
