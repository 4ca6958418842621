package config

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klayr-reg/internal/registration"
	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
)

// Validate checks resolved settings for operator mistakes.
func Validate(s *Settings) error {
	if s == nil {
		return fmt.Errorf("settings are nil")
	}
	var errs []error
	if s.MainIPC == "" && s.MainWS == "" {
		errs = append(errs, fmt.Errorf("mainchain endpoint: set main-ipc or main-ws"))
	}
	if s.SideIPC == "" && s.SideWS == "" {
		errs = append(errs, fmt.Errorf("sidechain endpoint: set side-ipc or side-ws"))
	}
	if err := registration.ValidateChainName(s.SideName); err != nil {
		errs = append(errs, fmt.Errorf("side-name: %w", err))
	}
	if s.Keys == "" {
		errs = append(errs, fmt.Errorf("keys: path is required"))
	}
	if s.MainRelayerPhrase == "" {
		errs = append(errs, fmt.Errorf("mainchain relayer phrase is required"))
	}
	if s.SideRelayerPhrase == "" {
		errs = append(errs, fmt.Errorf("sidechain relayer phrase is required"))
	}
	if _, err := crypto.ParseDerivationPath(s.MainPhrasePath); err != nil {
		errs = append(errs, fmt.Errorf("main-phrase-path: %w", err))
	}
	if _, err := crypto.ParseDerivationPath(s.SidePhrasePath); err != nil {
		errs = append(errs, fmt.Errorf("side-phrase-path: %w", err))
	}
	if s.AuthorizeCC {
		if s.MainCCPass == "" {
			errs = append(errs, fmt.Errorf("authorize-cc: mainchain connector password is required"))
		}
		if s.SideCCPass == "" {
			errs = append(errs, fmt.Errorf("authorize-cc: sidechain connector password is required"))
		}
	}
	if _, err := parseFee(s.RegisterMainchainFee); err != nil {
		errs = append(errs, fmt.Errorf("register-mainchain-fee: %w", err))
	}
	if _, err := parseFee(s.RegisterSidechainFee); err != nil {
		errs = append(errs, fmt.Errorf("register-sidechain-fee: %w", err))
	}
	return errors.Join(errs...)
}
