package registration

import (
	"context"
	"fmt"

	klog "github.com/Klingon-tech/klayr-reg/internal/log"
	"github.com/Klingon-tech/klayr-reg/internal/rpcclient"
)

// RegisterMainchain submits registerMainchain to the sidechain. The
// sidechain validators found in the keystore sign the registration
// message, which lists the mainchain validators with non-zero weight.
// The sidechain relayer signs and pays.
func (o *Orchestrator) RegisterMainchain(ctx context.Context, main, side rpcclient.API) Result {
	const flow = FlowRegisterMainchain
	logger := klog.WithFlow(flow)
	defer klog.Benchmark(flow)()

	if err := ValidateChainName(o.cfg.SidechainName); err != nil {
		return fatal(flow, err)
	}

	mainState, err := fetchChainState(ctx, main)
	if err != nil {
		return fatal(flow, fmt.Errorf("%w: mainchain: %v", ErrChainQuery, err))
	}
	weighted, err := WeightedValidators(mainState.Validators)
	if err != nil {
		return fatal(flow, fmt.Errorf("mainchain: %w", err))
	}

	sideState, err := fetchChainState(ctx, side)
	if err != nil {
		return fatal(flow, fmt.Errorf("%w: sidechain: %v", ErrChainQuery, err))
	}
	sorted, err := SortValidators(sideState.Validators)
	if err != nil {
		return fatal(flow, fmt.Errorf("sidechain: %w", err))
	}
	signers := ResolveSigners(sorted, o.keystore)
	logger.Debug().
		Int("active", len(sorted)).
		Int("signable", len(signers)).
		Msg("Resolved sidechain signers")

	msg, err := BuildSignatureMessage(sideState.ChainID, o.cfg.SidechainName, weighted, mainState.CertificateThreshold)
	if err != nil {
		return fatal(flow, err)
	}
	agg, err := SignAndAggregate(o.scheme, sideState.ChainID, msg.Encode(), sorted, signers)
	if err != nil {
		return fatal(flow, err)
	}
	params := MainchainRegParams{
		SignatureMessage: msg,
		Signature:        agg.Signature,
		AggregationBits:  agg.AggregationBits,
	}

	relayer, err := NewRelayer(o.cfg.Side.RelayerPhrase, o.cfg.Side.DerivationPath)
	if err != nil {
		return fatal(flow, fmt.Errorf("sidechain relayer: %w", err))
	}
	defer relayer.Close()
	nonce, err := relayer.Nonce(ctx, side)
	if err != nil {
		return fatal(flow, err)
	}

	final, err := Negotiate(TxRequest{
		Command:   CommandRegisterMainchain,
		Params:    params.Encode(),
		Nonce:     nonce,
		ChainID:   sideState.ChainID,
		Key:       relayer.key,
		Policy:    RegisterMainchainFees,
		Override:  o.cfg.RegisterMainchainFee,
		Estimator: o.estimatorFor(sideState),
	})
	if err != nil {
		return fatal(flow, err)
	}

	txID, err := Submit(ctx, side, final)
	if err != nil {
		return fatal(flow, err)
	}

	var warnings []error
	if o.cfg.AuthorizeChainConnector {
		if err := Authorize(ctx, main, o.cfg.Main.ConnectorPassword); err != nil {
			warnings = append(warnings, fmt.Errorf("mainchain: %w", err))
		}
	}
	return accepted(flow, txID, final.Fee(), warnings)
}
