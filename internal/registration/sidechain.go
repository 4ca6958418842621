package registration

import (
	"context"
	"fmt"

	klog "github.com/Klingon-tech/klayr-reg/internal/log"
	"github.com/Klingon-tech/klayr-reg/internal/rpcclient"
)

// RegisterSidechain submits registerSidechain to the mainchain. The
// parameters carry the sidechain's sorted active validators and its
// certificate threshold; the mainchain relayer signs and pays.
func (o *Orchestrator) RegisterSidechain(ctx context.Context, main, side rpcclient.API) Result {
	const flow = FlowRegisterSidechain
	logger := klog.WithFlow(flow)
	defer klog.Benchmark(flow)()

	if err := ValidateChainName(o.cfg.SidechainName); err != nil {
		return fatal(flow, err)
	}

	sideState, err := fetchChainState(ctx, side)
	if err != nil {
		return fatal(flow, fmt.Errorf("%w: sidechain: %v", ErrChainQuery, err))
	}
	sorted, err := SortValidators(sideState.Validators)
	if err != nil {
		return fatal(flow, fmt.Errorf("sidechain: %w", err))
	}
	params, err := BuildSidechainRegParams(o.cfg.SidechainName, sideState.ChainID, sorted, sideState.CertificateThreshold)
	if err != nil {
		return fatal(flow, err)
	}

	mainState, err := fetchChainState(ctx, main)
	if err != nil {
		return fatal(flow, fmt.Errorf("%w: mainchain: %v", ErrChainQuery, err))
	}

	relayer, err := NewRelayer(o.cfg.Main.RelayerPhrase, o.cfg.Main.DerivationPath)
	if err != nil {
		return fatal(flow, fmt.Errorf("mainchain relayer: %w", err))
	}
	defer relayer.Close()
	nonce, err := relayer.Nonce(ctx, main)
	if err != nil {
		return fatal(flow, err)
	}

	logger.Debug().
		Str("sidechain", o.cfg.SidechainName).
		Hex("chain_id", sideState.ChainID).
		Int("validators", len(sorted)).
		Uint64("threshold", sideState.CertificateThreshold).
		Str("relayer", relayer.Address().String()).
		Uint64("nonce", nonce).
		Msg("Registration parameters built")

	final, err := Negotiate(TxRequest{
		Command:   CommandRegisterSidechain,
		Params:    params.Encode(),
		Nonce:     nonce,
		ChainID:   mainState.ChainID,
		Key:       relayer.key,
		Policy:    RegisterSidechainFees,
		Override:  o.cfg.RegisterSidechainFee,
		Estimator: o.estimatorFor(mainState),
	})
	if err != nil {
		return fatal(flow, err)
	}

	txID, err := Submit(ctx, main, final)
	if err != nil {
		return fatal(flow, err)
	}

	var warnings []error
	if o.cfg.AuthorizeChainConnector {
		if err := Authorize(ctx, side, o.cfg.Side.ConnectorPassword); err != nil {
			warnings = append(warnings, fmt.Errorf("sidechain: %w", err))
		}
	}
	return accepted(flow, txID, final.Fee(), warnings)
}
