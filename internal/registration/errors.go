package registration

import (
	"errors"
	"fmt"
	"strings"
)

// Failure classes. Every error a flow returns wraps exactly one of these.
var (
	ErrNoEndpoint     = errors.New("no reachable endpoint")
	ErrChainQuery     = errors.New("chain query failed")
	ErrNoValidators   = errors.New("active validator set is empty")
	ErrNoSigners      = errors.New("no keystore entry matches an active validator")
	ErrSigning        = errors.New("signing failed")
	ErrFeeEstimation  = errors.New("fee estimation failed")
	ErrSubmission     = errors.New("transaction submission failed")
	ErrAuthorization  = errors.New("chain connector authorization failed")
	ErrInvalidRequest = errors.New("invalid registration input")
)

// Kind tags the outcome of a flow.
type Kind int

// Flow outcomes.
const (
	KindOK Kind = iota
	KindWarning
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindWarning:
		return "warning"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Flow names.
const (
	FlowRegisterSidechain = "register-sidechain"
	FlowRegisterMainchain = "register-mainchain"
)

// Result is the tagged outcome of one registration flow. A Warning
// result means the transaction was accepted but a follow-up step failed.
type Result struct {
	Flow          string
	Kind          Kind
	TransactionID string
	Fee           uint64
	Err           error
	Warnings      []error
}

// Succeeded reports whether the registration transaction was accepted.
func (r Result) Succeeded() bool {
	return r.Kind != KindFatal
}

func (r Result) String() string {
	switch r.Kind {
	case KindFatal:
		return fmt.Sprintf("%s failed: %v", r.Flow, r.Err)
	case KindWarning:
		msgs := make([]string, len(r.Warnings))
		for i, w := range r.Warnings {
			msgs[i] = w.Error()
		}
		return fmt.Sprintf("%s submitted tx %s (fee %d) with warnings: %s",
			r.Flow, r.TransactionID, r.Fee, strings.Join(msgs, "; "))
	default:
		return fmt.Sprintf("%s submitted tx %s (fee %d)", r.Flow, r.TransactionID, r.Fee)
	}
}

func fatal(flow string, err error) Result {
	return Result{Flow: flow, Kind: KindFatal, Err: err}
}

func accepted(flow, txID string, fee uint64, warnings []error) Result {
	kind := KindOK
	if len(warnings) > 0 {
		kind = KindWarning
	}
	return Result{Flow: flow, Kind: kind, TransactionID: txID, Fee: fee, Warnings: warnings}
}
