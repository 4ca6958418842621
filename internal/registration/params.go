package registration

import (
	"fmt"
	"regexp"

	"github.com/Klingon-tech/klayr-reg/pkg/codec"
	"github.com/Klingon-tech/klayr-reg/pkg/types"
)

// Interoperability module commands.
const (
	ModuleInteroperability   = "interoperability"
	CommandRegisterSidechain = "registerSidechain"
	CommandRegisterMainchain = "registerMainchain"
)

// MaxChainNameLength is the longest accepted chain name.
const MaxChainNameLength = 40

var chainNamePattern = regexp.MustCompile(`^[a-z0-9!@$&_.]+$`)

// ValidateChainName checks a sidechain name against the interoperability
// module rules.
func ValidateChainName(name string) error {
	if len(name) == 0 || len(name) > MaxChainNameLength {
		return fmt.Errorf("%w: chain name must be 1-%d characters", ErrInvalidRequest, MaxChainNameLength)
	}
	if !chainNamePattern.MatchString(name) {
		return fmt.Errorf("%w: chain name %q may only contain a-z 0-9 ! @ $ & _ .", ErrInvalidRequest, name)
	}
	return nil
}

// ActiveValidator is the {blsKey, bftWeight} pair carried in
// registration parameters.
type ActiveValidator struct {
	BLSKey    []byte
	BFTWeight uint64
}

func (v ActiveValidator) encode() []byte {
	return codec.NewWriter().
		Bytes(1, v.BLSKey).
		Uint64(2, v.BFTWeight).
		Result()
}

func encodeValidators(vals []ActiveValidator) [][]byte {
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = v.encode()
	}
	return out
}

// activeValidators projects validators onto their registration form.
func activeValidators(vals []Validator) []ActiveValidator {
	out := make([]ActiveValidator, len(vals))
	for i, v := range vals {
		out[i] = ActiveValidator{
			BLSKey:    append([]byte(nil), v.BLSKey...),
			BFTWeight: v.BFTWeight,
		}
	}
	return out
}

// SignatureMessage is the payload sidechain validators sign to register
// the mainchain.
type SignatureMessage struct {
	OwnChainID                    []byte
	OwnName                       string
	MainchainValidators           []ActiveValidator
	MainchainCertificateThreshold uint64
}

func (m SignatureMessage) writer() *codec.Writer {
	return codec.NewWriter().
		Bytes(1, m.OwnChainID).
		String(2, m.OwnName).
		RepeatedObjects(3, encodeValidators(m.MainchainValidators)).
		Uint64(4, m.MainchainCertificateThreshold)
}

// Encode returns the canonical bytes of the message.
func (m SignatureMessage) Encode() []byte {
	return m.writer().Result()
}

// MainchainRegParams are the parameters of registerMainchain.
type MainchainRegParams struct {
	SignatureMessage
	Signature       []byte
	AggregationBits []byte
}

// Encode returns the canonical bytes of the parameters.
func (p MainchainRegParams) Encode() []byte {
	return p.writer().
		Bytes(5, p.Signature).
		Bytes(6, p.AggregationBits).
		Result()
}

// SidechainRegParams are the parameters of registerSidechain.
type SidechainRegParams struct {
	Name                          string
	ChainID                       []byte
	SidechainValidators           []ActiveValidator
	SidechainCertificateThreshold uint64
}

// Encode returns the canonical bytes of the parameters.
func (p SidechainRegParams) Encode() []byte {
	return codec.NewWriter().
		String(1, p.Name).
		Bytes(2, p.ChainID).
		RepeatedObjects(3, encodeValidators(p.SidechainValidators)).
		Uint64(4, p.SidechainCertificateThreshold).
		Result()
}

// BuildSignatureMessage assembles the registration message for the
// mainchain from the sidechain's identity and the sorted, weighted
// mainchain validators.
func BuildSignatureMessage(sidechainID []byte, sidechainName string, mainchain []Validator, threshold uint64) (SignatureMessage, error) {
	if len(sidechainID) != types.ChainIDLength {
		return SignatureMessage{}, fmt.Errorf("%w: chain ID must be %d bytes, got %d", ErrInvalidRequest, types.ChainIDLength, len(sidechainID))
	}
	return SignatureMessage{
		OwnChainID:                    append([]byte(nil), sidechainID...),
		OwnName:                       sidechainName,
		MainchainValidators:           activeValidators(mainchain),
		MainchainCertificateThreshold: threshold,
	}, nil
}

// BuildSidechainRegParams assembles registerSidechain parameters from
// the sorted sidechain validators.
func BuildSidechainRegParams(name string, chainID []byte, sidechain []Validator, threshold uint64) (SidechainRegParams, error) {
	if len(chainID) != types.ChainIDLength {
		return SidechainRegParams{}, fmt.Errorf("%w: chain ID must be %d bytes, got %d", ErrInvalidRequest, types.ChainIDLength, len(chainID))
	}
	return SidechainRegParams{
		Name:                          name,
		ChainID:                       append([]byte(nil), chainID...),
		SidechainValidators:           activeValidators(sidechain),
		SidechainCertificateThreshold: threshold,
	}, nil
}
