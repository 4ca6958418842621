package registration

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klayr-reg/internal/keystore"
	"github.com/Klingon-tech/klayr-reg/internal/rpcclient"
)

// Validator is an active consensus participant.
type Validator struct {
	Address   string
	BLSKey    []byte
	BFTWeight uint64
}

// Signer is a validator whose BLS private key is available locally.
type Signer struct {
	BLSKey        []byte
	BLSPrivateKey []byte
}

// ChainState is a snapshot of one chain taken at the start of a flow.
type ChainState struct {
	ChainID              []byte
	Height               uint64
	CertificateThreshold uint64
	MinFeePerByte        uint64
	Validators           []Validator
}

// fetchChainState reads node info and the BFT parameters at the
// current height.
func fetchChainState(ctx context.Context, api rpcclient.API) (*ChainState, error) {
	info, err := api.NodeInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get node info: %w", err)
	}
	bft, err := api.BFTParameters(ctx, info.Height)
	if err != nil {
		return nil, fmt.Errorf("get bft parameters at height %d: %w", info.Height, err)
	}

	vals := make([]Validator, len(bft.Validators))
	for i, v := range bft.Validators {
		vals[i] = Validator{
			Address:   v.Address,
			BLSKey:    v.BLSKey,
			BFTWeight: uint64(v.BFTWeight),
		}
	}
	return &ChainState{
		ChainID:              info.ChainID,
		Height:               info.Height,
		CertificateThreshold: uint64(bft.CertificateThreshold),
		MinFeePerByte:        info.MinFeePerByte(),
		Validators:           vals,
	}, nil
}

// SortValidators returns a copy of vals ordered by ascending BLS key bytes.
// An empty set is an error.
func SortValidators(vals []Validator) ([]Validator, error) {
	if len(vals) == 0 {
		return nil, ErrNoValidators
	}
	out := append([]Validator(nil), vals...)
	sort.SliceStable(out, func(i, j int) bool {
		return bytes.Compare(out[i].BLSKey, out[j].BLSKey) < 0
	})
	return out, nil
}

// WeightedValidators drops validators with zero BFT weight, then sorts.
func WeightedValidators(vals []Validator) ([]Validator, error) {
	weighted := make([]Validator, 0, len(vals))
	for _, v := range vals {
		if v.BFTWeight > 0 {
			weighted = append(weighted, v)
		}
	}
	return SortValidators(weighted)
}

// ResolveSigners returns, in the order of sorted, the validators that
// have a keystore entry with an identical BLS key. Validators without a
// match are left out.
func ResolveSigners(sorted []Validator, ks *keystore.Keystore) []Signer {
	var signers []Signer
	for _, v := range sorted {
		e, ok := ks.Find(v.BLSKey)
		if !ok {
			continue
		}
		signers = append(signers, Signer{BLSKey: v.BLSKey, BLSPrivateKey: e.BLSPrivateKey})
	}
	return signers
}

// BLSKeys returns the BLS keys of vals in order.
func BLSKeys(vals []Validator) [][]byte {
	keys := make([][]byte, len(vals))
	for i, v := range vals {
		keys[i] = v.BLSKey
	}
	return keys
}
