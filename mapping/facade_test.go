package mapping

import (
	"errors"
	"testing"
)

func TestClassifyWithNilErrorReturnsNil(t *testing.T) {
	if got := classifyWith(txHashMappingReverts, nil); got != nil {
		t.Fatalf("classifyWith(nil) = %v, want nil", got)
	}
}

type fakeDataError struct {
	data string
}

func (e *fakeDataError) Error() string          { return "revert" }
func (e *fakeDataError) ErrorData() interface{} { return e.data }

func TestClassifyWithUnmatchedSelectorIsUnknown(t *testing.T) {
	err := &fakeDataError{data: "0xdeadbeef"}
	got := classifyWith(txHashMappingReverts, err)
	if got.Kind != RevertUnknown {
		t.Fatalf("classifyWith() kind = %v, want RevertUnknown", got.Kind)
	}
}

func TestClassifyWithPlainErrorIsUnknown(t *testing.T) {
	got := classifyWith(omInteropReverts, errors.New("connection reset"))
	if got.Kind != RevertUnknown {
		t.Fatalf("classifyWith() kind = %v, want RevertUnknown", got.Kind)
	}
}

func TestBytesEqual(t *testing.T) {
	if !bytesEqual([]byte{1, 2, 3}, []byte{1, 2, 3}) {
		t.Fatalf("expected equal byte slices to compare equal")
	}
	if bytesEqual([]byte{1, 2}, []byte{1, 2, 3}) {
		t.Fatalf("expected different-length byte slices to compare unequal")
	}
	if bytesEqual([]byte{1, 2, 3}, []byte{1, 2, 4}) {
		t.Fatalf("expected differing byte slices to compare unequal")
	}
}

func TestMatchSelectorRejectsMalformedHex(t *testing.T) {
	declared := txHashMappingReverts.errors
	if _, ok := matchSelector(declared, "not-hex"); ok {
		t.Fatalf("expected malformed hex to not match")
	}
	if _, ok := matchSelector(declared, "0x01"); ok {
		t.Fatalf("expected too-short payload to not match")
	}
}
