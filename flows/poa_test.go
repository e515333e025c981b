package flows

import (
	"math/big"
	"testing"

	"github.com/onemoney-protocol/relayer/contracts/validatormanager"
)

func key(x, y int64) validatormanager.Secp256k1Key {
	return validatormanager.Secp256k1Key{X: big.NewInt(x), Y: big.NewInt(y)}
}

func TestDiffValidatorsNoChangeIsEmptyBothWays(t *testing.T) {
	set := []validatormanager.ValidatorInfo{
		{Key: key(1, 2), Power: validatorPower},
		{Key: key(3, 4), Power: validatorPower},
	}
	add, remove := diffValidators(set, set)
	if len(add) != 0 || len(remove) != 0 {
		t.Fatalf("expected no-op diff, got add=%v remove=%v", add, remove)
	}
}

func TestDiffValidatorsDetectsAddAndRemove(t *testing.T) {
	wanted := []validatormanager.ValidatorInfo{
		{Key: key(1, 2), Power: validatorPower},
		{Key: key(5, 6), Power: validatorPower},
	}
	current := []validatormanager.ValidatorInfo{
		{Key: key(1, 2), Power: validatorPower},
		{Key: key(3, 4), Power: validatorPower},
	}

	add, remove := diffValidators(wanted, current)
	if len(add) != 1 || add[0].Key.X.Int64() != 5 {
		t.Fatalf("expected add=[key(5,6)], got %v", add)
	}
	if len(remove) != 1 || remove[0].X.Int64() != 3 {
		t.Fatalf("expected remove=[key(3,4)], got %v", remove)
	}
}

func TestDiffValidatorsIsDeterministicallySorted(t *testing.T) {
	wanted := []validatormanager.ValidatorInfo{
		{Key: key(9, 9), Power: validatorPower},
		{Key: key(1, 1), Power: validatorPower},
		{Key: key(5, 5), Power: validatorPower},
	}
	add1, _ := diffValidators(wanted, nil)
	add2, _ := diffValidators(wanted, nil)
	if len(add1) != 3 || len(add2) != 3 {
		t.Fatalf("expected 3 additions, got %d and %d", len(add1), len(add2))
	}
	for i := range add1 {
		if keyString(add1[i].Key) != keyString(add2[i].Key) {
			t.Fatalf("diff ordering not deterministic across calls")
		}
	}
}

func TestDecodeConsensusKeyRejectsMalformed(t *testing.T) {
	if _, err := decodeConsensusKey("0xnothex"); err == nil {
		t.Fatalf("expected malformed hex to fail")
	}
	if _, err := decodeConsensusKey("0x0400"); err == nil {
		t.Fatalf("expected truncated uncompressed point to fail")
	}
}
