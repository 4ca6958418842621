package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klayr-reg/internal/keystore"
	klog "github.com/Klingon-tech/klayr-reg/internal/log"
	"github.com/Klingon-tech/klayr-reg/internal/rpcclient"
)

// Conn is an open node connection.
type Conn interface {
	rpcclient.API
	Close() error
}

// Dialer opens a node connection.
type Dialer func(ctx context.Context, ep rpcclient.Endpoint) (Conn, error)

// DialNode is the default Dialer.
func DialNode(ctx context.Context, ep rpcclient.Endpoint) (Conn, error) {
	c, err := rpcclient.Dial(ctx, ep)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Orchestrator runs both registration flows against a mainchain and a
// sidechain node.
type Orchestrator struct {
	cfg       Config
	keystore  *keystore.Keystore
	dial      Dialer
	scheme    BLSScheme
	estimator Estimator
}

// NewOrchestrator creates an orchestrator for cfg. Validator BLS keys
// are looked up in ks.
func NewOrchestrator(cfg Config, ks *keystore.Keystore) *Orchestrator {
	if ks == nil {
		ks = keystore.New()
	}
	return &Orchestrator{
		cfg:      cfg,
		keystore: ks,
		dial:     DialNode,
		scheme:   KlayrBLS{},
	}
}

// WithDialer replaces the node dialer.
func (o *Orchestrator) WithDialer(d Dialer) *Orchestrator {
	o.dial = d
	return o
}

// WithScheme replaces the BLS scheme used for validator signatures.
func (o *Orchestrator) WithScheme(s BLSScheme) *Orchestrator {
	o.scheme = s
	return o
}

// WithEstimator replaces the fee estimator. By default fees are priced
// at the target node's minimum fee per byte.
func (o *Orchestrator) WithEstimator(e Estimator) *Orchestrator {
	o.estimator = e
	return o
}

// Run connects to both chains, registers the sidechain on the mainchain
// and then the mainchain on the sidechain. It stops at the first fatal
// result and returns it as the error. The results of the flows that ran
// are returned either way.
func (o *Orchestrator) Run(ctx context.Context) ([]Result, error) {
	main, err := o.connect(ctx, "mainchain", o.cfg.Main.Endpoint)
	if err != nil {
		r := fatal(FlowRegisterSidechain, err)
		logResult(r)
		return []Result{r}, err
	}
	defer main.Close()

	side, err := o.connect(ctx, "sidechain", o.cfg.Side.Endpoint)
	if err != nil {
		r := fatal(FlowRegisterSidechain, err)
		logResult(r)
		return []Result{r}, err
	}
	defer side.Close()

	var results []Result
	for _, flow := range []func(context.Context, rpcclient.API, rpcclient.API) Result{
		o.RegisterSidechain,
		o.RegisterMainchain,
	} {
		r := flow(ctx, main, side)
		logResult(r)
		results = append(results, r)
		if r.Kind == KindFatal {
			return results, r.Err
		}
	}
	return results, nil
}

func (o *Orchestrator) connect(ctx context.Context, name string, ep rpcclient.Endpoint) (Conn, error) {
	if ep.Name == "" {
		ep.Name = name
	}
	conn, err := o.dial(ctx, ep)
	if err != nil {
		if errors.Is(err, ErrNoEndpoint) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNoEndpoint, err)
	}
	return conn, nil
}

func (o *Orchestrator) estimatorFor(state *ChainState) Estimator {
	if o.estimator != nil {
		return o.estimator
	}
	return MinFeeEstimator{MinFeePerByte: state.MinFeePerByte}
}

func logResult(r Result) {
	logger := klog.WithFlow(r.Flow)
	switch r.Kind {
	case KindFatal:
		logger.Error().Err(r.Err).Msg("Registration failed")
	case KindWarning:
		for _, w := range r.Warnings {
			logger.Warn().Err(w).Str("tx", r.TransactionID).Msg("Registration submitted with warning")
		}
	default:
		logger.Info().Str("tx", r.TransactionID).Uint64("fee", r.Fee).Msg("Registration submitted")
	}
}
