package registration

import (
	"encoding/json"
	"errors"
	"fmt"

	klog "github.com/Klingon-tech/klayr-reg/internal/log"
	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
	"github.com/Klingon-tech/klayr-reg/pkg/tx"
	"github.com/rs/zerolog"
)

// FeePolicy holds the fee constants of one registration direction.
type FeePolicy struct {
	// Provisional is the placeholder fee of the first signed transaction.
	Provisional uint64
	// Buffer is added to the estimated fee when no override is given.
	Buffer uint64
}

// Fee policies per direction. Only sidechain registration adds a buffer.
var (
	RegisterSidechainFees = FeePolicy{Provisional: 1_010_000_000, Buffer: 1_000_000_000}
	RegisterMainchainFees = FeePolicy{Provisional: 2_000_000_000}
)

// Estimator returns the minimum fee for a signed transaction.
type Estimator interface {
	EstimateMinFee(t tx.Transaction) (uint64, error)
}

// MinFeeEstimator prices transactions by their encoded size.
type MinFeeEstimator struct {
	MinFeePerByte uint64
}

// EstimateMinFee implements Estimator.
func (e MinFeeEstimator) EstimateMinFee(t tx.Transaction) (uint64, error) {
	rate := e.MinFeePerByte
	if rate == 0 {
		rate = tx.DefaultMinFeePerByte
	}
	return tx.MinFee(t, rate), nil
}

// negotiationState names the steps of fee negotiation.
type negotiationState int

const (
	stateBuildProvisional negotiationState = iota
	stateSignProvisional
	stateEstimateFee
	stateResolveFee
	stateSignFinal
	stateReady
)

func (s negotiationState) String() string {
	switch s {
	case stateBuildProvisional:
		return "BUILD_PROVISIONAL"
	case stateSignProvisional:
		return "SIGN_PROVISIONAL"
	case stateEstimateFee:
		return "ESTIMATE_FEE"
	case stateResolveFee:
		return "RESOLVE_FEE"
	case stateSignFinal:
		return "SIGN_FINAL"
	case stateReady:
		return "READY"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ProvisionalTx is the throwaway transaction signed with the placeholder
// fee. It exists only to be measured.
type ProvisionalTx struct {
	tx tx.Transaction
}

// Transaction returns the signed provisional transaction.
func (p ProvisionalTx) Transaction() tx.Transaction { return p.tx }

// FinalTx is the transaction signed with the negotiated fee, ready for
// submission.
type FinalTx struct {
	tx tx.Transaction
}

// Transaction returns the final signed transaction.
func (f FinalTx) Transaction() tx.Transaction { return f.tx }

// Fee returns the negotiated fee.
func (f FinalTx) Fee() uint64 { return f.tx.Fee }

// Hex returns the encoding submitted to the transaction pool.
func (f FinalTx) Hex() string { return f.tx.Hex() }

// TxRequest describes the transaction to negotiate.
type TxRequest struct {
	Command   string
	Params    []byte
	Nonce     uint64
	ChainID   []byte
	Key       *crypto.PrivateKey
	Policy    FeePolicy
	Override  *uint64
	Estimator Estimator
}

// buildUnsigned builds the transaction with the placeholder fee.
func buildUnsigned(req TxRequest) tx.Transaction {
	return tx.NewBuilder(ModuleInteroperability, req.Command).
		Nonce(req.Nonce).
		Fee(req.Policy.Provisional).
		SenderPublicKey(req.Key.PublicKey()).
		Params(req.Params).
		Build()
}

// signProvisional signs the unsigned transaction once.
func signProvisional(unsigned tx.Transaction, req TxRequest) ProvisionalTx {
	return ProvisionalTx{tx: unsigned.Sign(req.ChainID, req.Key)}
}

// ResolveFee picks the final fee: the override verbatim when set,
// otherwise the estimate plus the policy buffer.
func ResolveFee(estimate uint64, policy FeePolicy, override *uint64) uint64 {
	if override != nil {
		return *override
	}
	return estimate + policy.Buffer
}

// Finalize re-signs the provisional transaction with fee.
func Finalize(p ProvisionalTx, fee uint64, chainID []byte, key *crypto.PrivateKey) FinalTx {
	return FinalTx{tx: p.tx.WithFee(fee).Sign(chainID, key)}
}

// Negotiate runs the fee negotiation and returns the transaction to
// submit. Estimation is skipped when an override is set.
func Negotiate(req TxRequest) (FinalTx, error) {
	return negotiate(req, klog.Registration)
}

func negotiate(req TxRequest, logger zerolog.Logger) (FinalTx, error) {
	var (
		state       = stateBuildProvisional
		unsigned    tx.Transaction
		provisional ProvisionalTx
		estimate    uint64
		fee         uint64
		final       FinalTx
	)

	for state != stateReady {
		logger.Debug().Str("state", state.String()).Str("command", req.Command).Msg("Fee negotiation")
		switch state {
		case stateBuildProvisional:
			if req.Key == nil {
				return FinalTx{}, fmt.Errorf("%w: missing relayer key", ErrInvalidRequest)
			}
			unsigned = buildUnsigned(req)
			state = stateSignProvisional
		case stateSignProvisional:
			provisional = signProvisional(unsigned, req)
			if req.Override != nil {
				state = stateResolveFee
			} else {
				state = stateEstimateFee
			}
		case stateEstimateFee:
			if req.Estimator == nil {
				return FinalTx{}, fmt.Errorf("%w: no estimator configured", ErrFeeEstimation)
			}
			if data, err := json.Marshal(provisional.tx); err == nil {
				logger.Debug().RawJSON("transaction", data).Msg("Estimating fee")
			}
			est, err := req.Estimator.EstimateMinFee(provisional.tx)
			if err != nil {
				return FinalTx{}, fmt.Errorf("%w: %v", ErrFeeEstimation, err)
			}
			estimate = est
			state = stateResolveFee
		case stateResolveFee:
			fee = ResolveFee(estimate, req.Policy, req.Override)
			state = stateSignFinal
		case stateSignFinal:
			final = Finalize(provisional, fee, req.ChainID, req.Key)
			if err := final.tx.Validate(req.ChainID); err != nil {
				if errors.Is(err, tx.ErrInvalidSig) {
					return FinalTx{}, fmt.Errorf("%w: %v", ErrSigning, err)
				}
				return FinalTx{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
			}
			state = stateReady
		}
	}

	logger.Debug().
		Str("command", req.Command).
		Uint64("estimate", estimate).
		Uint64("fee", fee).
		Bool("override", req.Override != nil).
		Msg("Fee resolved")
	return final, nil
}
