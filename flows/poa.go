package flows

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/onemoney-protocol/relayer/contracts/validatormanager"
	"github.com/onemoney-protocol/relayer/mapping"
	"github.com/onemoney-protocol/relayer/onemoney"
	"github.com/onemoney-protocol/relayer/sidechain"
)

// validatorPower is the fixed voting power every mirrored validator is
// assigned; spec.md §4.C8 step 1 names this literal value rather than
// deriving it from the source set.
const validatorPower = 100

// PoaFlow implements C8: mirroring 1Money's PoA validator set onto the
// sidechain ValidatorManager contract on every epoch change.
type PoaFlow struct {
	Epochs chan onemoney.Epoch

	SC     *sidechain.Client
	Mapper *mapping.Facade
}

// Run consumes epochs until ctx is cancelled or the channel closes.
func (f *PoaFlow) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case epoch, ok := <-f.Epochs:
			if !ok {
				return nil
			}
			if err := f.handleEpoch(ctx, epoch); err != nil {
				return err
			}
		}
	}
}

func (f *PoaFlow) handleEpoch(ctx context.Context, epoch onemoney.Epoch) error {
	wanted, err := convertValidators(epoch.Validators())
	if err != nil {
		return fmt.Errorf("flows: epoch %d: %w", epoch.EpochID, err)
	}

	current, err := f.SC.ValidatorManager.GetValidators(&bind.CallOpts{Context: ctx})
	if err != nil {
		return fmt.Errorf("flows: epoch %d: getValidators: %w", epoch.EpochID, err)
	}

	add, remove := diffValidators(wanted, current)
	if len(add) == 0 && len(remove) == 0 {
		flowLog.Debugf("epoch %d: validator set unchanged, skipping", epoch.EpochID)
		return nil
	}

	if _, err := f.Mapper.AddAndRemove(ctx, add, remove); err != nil {
		return fmt.Errorf("flows: epoch %d: addAndRemove: %w", epoch.EpochID, err)
	}

	flowLog.Infof("epoch %d: validator set updated, +%d -%d, new size %d", epoch.EpochID, len(add), len(remove), len(wanted))
	return nil
}

// convertValidators turns 1Money's validator_set.members into the
// ValidatorManager's {key:(x,y), power} shape (spec.md §4.C8 step 1). A
// member whose consensus key doesn't decode to a full uncompressed
// secp256k1 point fails the whole conversion.
func convertValidators(members []onemoney.ValidatorMember) ([]validatormanager.ValidatorInfo, error) {
	out := make([]validatormanager.ValidatorInfo, 0, len(members))
	for _, m := range members {
		key, err := decodeConsensusKey(m.ConsensusPublicKey)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", m.Address, err)
		}
		out = append(out, validatormanager.ValidatorInfo{Key: key, Power: validatorPower})
	}
	return out, nil
}

func decodeConsensusKey(hexKey string) (validatormanager.Secp256k1Key, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")
	data, err := hex.DecodeString(raw)
	if err != nil {
		return validatormanager.Secp256k1Key{}, fmt.Errorf("malformed consensus key: %w", err)
	}

	pub, err := crypto.UnmarshalPubkey(data)
	if err != nil {
		return validatormanager.Secp256k1Key{}, fmt.Errorf("consensus key missing x or y coordinate: %w", err)
	}

	return validatormanager.Secp256k1Key{X: pub.X, Y: pub.Y}, nil
}

// diffValidators computes the structural-equality set difference in both
// directions, sorted for determinism (spec.md §4.C8 steps 2-3).
func diffValidators(wanted []validatormanager.ValidatorInfo, current []validatormanager.ValidatorInfo) (add []validatormanager.ValidatorInfo, remove []validatormanager.Secp256k1Key) {
	currentByKey := make(map[string]validatormanager.ValidatorInfo, len(current))
	for _, v := range current {
		currentByKey[keyString(v.Key)] = v
	}
	wantedByKey := make(map[string]validatormanager.ValidatorInfo, len(wanted))
	for _, v := range wanted {
		wantedByKey[keyString(v.Key)] = v
	}

	for k, w := range wantedByKey {
		c, ok := currentByKey[k]
		if !ok || c.Power != w.Power || c.Key.X.Cmp(w.Key.X) != 0 || c.Key.Y.Cmp(w.Key.Y) != 0 {
			add = append(add, w)
		}
	}
	for k, c := range currentByKey {
		if _, ok := wantedByKey[k]; !ok {
			remove = append(remove, c.Key)
		}
	}

	sort.Slice(add, func(i, j int) bool { return keyString(add[i].Key) < keyString(add[j].Key) })
	sort.Slice(remove, func(i, j int) bool { return keyString(remove[i]) < keyString(remove[j]) })

	return add, remove
}

func keyString(k validatormanager.Secp256k1Key) string {
	return k.X.Text(16) + ":" + k.Y.Text(16)
}
