package ominterop

import (
	"encoding/hex"
	"errors"
	"strings"
)

func stripHexPrefixAndDecode(s string) []byte {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return data
}

// dataError is the interface go-ethereum's json-rpc errors satisfy,
// exposing the ABI-encoded revert reason carried in the `data` member of a
// reverted eth_call's error response.
type dataError interface {
	ErrorData() interface{}
}

// IsNoCompletedCheckpoint reports whether err is GetLatestCompletedCheckpoint
// reverting because no checkpoint has been tallied yet (spec.md §4.C9:
// "treated as 0 when contract reverts with NoCompletedCheckpoint").
func IsNoCompletedCheckpoint(err error) bool {
	if err == nil {
		return false
	}
	var de dataError
	if !errors.As(err, &de) {
		return false
	}
	raw, ok := de.ErrorData().(string)
	if !ok {
		return false
	}
	return selectorMatches(raw, "NoCompletedCheckpoint")
}

func selectorMatches(hexData, name string) bool {
	e, ok := parsedABI.Errors[name]
	if !ok {
		return false
	}
	data := stripHexPrefixAndDecode(hexData)
	if len(data) < 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if data[i] != e.ID[i] {
			return false
		}
	}
	return true
}

// Sentinel errors mirroring OMInterop's declared custom errors (spec.md §7:
// "OMInteropErrors::InvalidNonce" etc). NoCompletedCheckpoint is not a
// write-path revert; it is handled inline by GetLatestCompletedCheckpoint's
// callers since it signals "no checkpoint tallied yet", not a failure.
var (
	ErrInvalidNonce            = errors.New("ominterop: invalid nonce")
	ErrNoCompletedCheckpoint   = errors.New("ominterop: no completed checkpoint")
	ErrAlreadyProcessed        = errors.New("ominterop: already processed")
	ErrUnauthorized            = errors.New("ominterop: unauthorized caller")
)

// ClassifyRevert maps a decoded Solidity custom-error name to one of the
// sentinel errors above, for C11's revert classification.
func ClassifyRevert(name string) (error, bool) {
	switch name {
	case "InvalidNonce":
		return ErrInvalidNonce, true
	case "NoCompletedCheckpoint":
		return ErrNoCompletedCheckpoint, true
	case "AlreadyProcessed":
		return ErrAlreadyProcessed, true
	case "Unauthorized":
		return ErrUnauthorized, true
	default:
		return nil, false
	}
}
