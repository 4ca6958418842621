// Package config resolves klayr-reg settings.
//
// Every option is looked up once, in order, in each configured source
// (command-line flags, config file, environment, defaults). The first
// non-empty value wins. Combined options then override their per-chain
// counterparts:
//   - relayerPhrase over mainRelayerPhrase and sideRelayerPhrase
//   - phrasePath over mainPhrasePath and sidePhrasePath
//   - ccPass over mainCcPass and sideCcPass
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klayr-reg/internal/registration"
	"github.com/Klingon-tech/klayr-reg/internal/rpcclient"
)

// Settings is the fully resolved configuration of one run.
type Settings struct {
	// Chain endpoints
	MainIPC string `conf:"mainIpc"`
	MainWS  string `conf:"mainWs"`
	SideIPC string `conf:"sideIpc"`
	SideWS  string `conf:"sideWs"`

	// Registration
	SideName     string `conf:"sideName"`
	Keys         string `conf:"keys"`
	KeysPassword string `conf:"keysPassword"`

	// Relayer accounts
	RelayerPhrase     string `conf:"relayerPhrase"`
	MainRelayerPhrase string `conf:"mainRelayerPhrase"`
	SideRelayerPhrase string `conf:"sideRelayerPhrase"`
	PromptPath        bool   `conf:"promptPath"`
	PhrasePath        string `conf:"phrasePath"`
	MainPhrasePath    string `conf:"mainPhrasePath"`
	SidePhrasePath    string `conf:"sidePhrasePath"`

	// Chain connector
	AuthorizeCC bool   `conf:"authorizeCc"`
	CCPass      string `conf:"ccPass"`
	MainCCPass  string `conf:"mainCcPass"`
	SideCCPass  string `conf:"sideCcPass"`

	// Fee overrides, decimal base units
	RegisterMainchainFee string `conf:"registerMainchainFee"`
	RegisterSidechainFee string `conf:"registerSidechainFee"`

	// Logging
	Log LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Verbose bool   `conf:"verbose"`
	Level   string `conf:"logLevel"`
	File    string `conf:"logFile"`
	JSON    bool   `conf:"logJson"`
}

// LevelOrVerbose returns "debug" when verbose output was requested.
func (l LogConfig) LevelOrVerbose() string {
	if l.Verbose {
		return "debug"
	}
	return l.Level
}

// Resolve builds Settings from sources, highest precedence first.
func Resolve(sources ...Source) (*Settings, error) {
	s := &Settings{}
	for _, opt := range Options {
		for _, src := range sources {
			v, ok := src.Lookup(opt)
			if !ok || v == "" {
				continue
			}
			if err := setValue(s, opt.Key, v); err != nil {
				return nil, fmt.Errorf("%s %s: %w", src.Name(), opt.Key, err)
			}
			break
		}
	}
	s.applyCombined()
	return s, nil
}

func (s *Settings) applyCombined() {
	if s.RelayerPhrase != "" {
		s.MainRelayerPhrase = s.RelayerPhrase
		s.SideRelayerPhrase = s.RelayerPhrase
	}
	if s.PhrasePath != "" {
		s.MainPhrasePath = s.PhrasePath
		s.SidePhrasePath = s.PhrasePath
	}
	if s.CCPass != "" {
		s.MainCCPass = s.CCPass
		s.SideCCPass = s.CCPass
	}
}

// SetRelayerPhrase sets the same relayer phrase for both chains.
func (s *Settings) SetRelayerPhrase(phrase string) {
	s.RelayerPhrase = phrase
	s.applyCombined()
}

// SetPhrasePath sets the same derivation path for both chains.
func (s *Settings) SetPhrasePath(path string) {
	s.PhrasePath = path
	s.applyCombined()
}

// SetCCPass sets the same chain connector password for both chains.
func (s *Settings) SetCCPass(pass string) {
	s.CCPass = pass
	s.applyCombined()
}

const redacted = "***"

// Redacted returns a copy with every secret option masked.
func (s Settings) Redacted() Settings {
	for _, opt := range Options {
		if !opt.Secret {
			continue
		}
		if p := s.stringField(opt.Key); p != nil && *p != "" {
			*p = redacted
		}
	}
	return s
}

// Registration converts validated settings into the registration input.
func (s *Settings) Registration() (registration.Config, error) {
	mainFee, err := parseFee(s.RegisterMainchainFee)
	if err != nil {
		return registration.Config{}, fmt.Errorf("registerMainchainFee: %w", err)
	}
	sideFee, err := parseFee(s.RegisterSidechainFee)
	if err != nil {
		return registration.Config{}, fmt.Errorf("registerSidechainFee: %w", err)
	}

	return registration.Config{
		SidechainName: s.SideName,
		Main: registration.ChainConfig{
			Endpoint:          rpcclient.Endpoint{Name: "mainchain", IPC: s.MainIPC, WS: s.MainWS},
			RelayerPhrase:     s.MainRelayerPhrase,
			DerivationPath:    s.MainPhrasePath,
			ConnectorPassword: s.MainCCPass,
		},
		Side: registration.ChainConfig{
			Endpoint:          rpcclient.Endpoint{Name: "sidechain", IPC: s.SideIPC, WS: s.SideWS},
			RelayerPhrase:     s.SideRelayerPhrase,
			DerivationPath:    s.SidePhrasePath,
			ConnectorPassword: s.SideCCPass,
		},
		AuthorizeChainConnector: s.AuthorizeCC,
		RegisterMainchainFee:    mainFee,
		RegisterSidechainFee:    sideFee,
	}, nil
}

func parseFee(s string) (*uint64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid fee %q", s)
	}
	return &v, nil
}

// SplitEndpoint sorts a prompted endpoint into an IPC path or a
// WebSocket URL. Values starting with "ws" are URLs.
func SplitEndpoint(input string) (ipc, ws string) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "ws") {
		return "", input
	}
	return input, ""
}
