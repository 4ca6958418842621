package config

import (
	"fmt"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// FileSource reads options from a JSON, YAML or TOML config file.
type FileSource struct {
	path string
	v    *viper.Viper
}

// LoadFile reads the config file at path. The format follows the file
// extension.
func LoadFile(path string) (*FileSource, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(expanded)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", expanded, err)
	}
	return &FileSource{path: expanded, v: v}, nil
}

// Name implements Source.
func (f *FileSource) Name() string { return "config file " + f.path }

// Lookup implements Source.
func (f *FileSource) Lookup(opt Option) (string, bool) {
	if !f.v.IsSet(opt.Key) {
		return "", false
	}
	return f.v.GetString(opt.Key), true
}

// stringField returns the string setting for key, or nil when key names
// a boolean or unknown option.
func (s *Settings) stringField(key string) *string {
	switch key {
	case "mainIpc":
		return &s.MainIPC
	case "mainWs":
		return &s.MainWS
	case "sideIpc":
		return &s.SideIPC
	case "sideWs":
		return &s.SideWS
	case "sideName":
		return &s.SideName
	case "keys":
		return &s.Keys
	case "keysPassword":
		return &s.KeysPassword
	case "relayerPhrase":
		return &s.RelayerPhrase
	case "mainRelayerPhrase":
		return &s.MainRelayerPhrase
	case "sideRelayerPhrase":
		return &s.SideRelayerPhrase
	case "phrasePath":
		return &s.PhrasePath
	case "mainPhrasePath":
		return &s.MainPhrasePath
	case "sidePhrasePath":
		return &s.SidePhrasePath
	case "ccPass":
		return &s.CCPass
	case "mainCcPass":
		return &s.MainCCPass
	case "sideCcPass":
		return &s.SideCCPass
	case "registerMainchainFee":
		return &s.RegisterMainchainFee
	case "registerSidechainFee":
		return &s.RegisterSidechainFee
	case "logLevel":
		return &s.Log.Level
	case "logFile":
		return &s.Log.File
	default:
		return nil
	}
}

// setValue sets a setting by its config file key.
func setValue(s *Settings, key, value string) error {
	if p := s.stringField(key); p != nil {
		*p = value
		return nil
	}
	switch key {
	case "promptPath":
		s.PromptPath = parseBool(value)
	case "authorizeCc":
		s.AuthorizeCC = parseBool(value)
	case "verbose":
		s.Log.Verbose = parseBool(value)
	case "logJson":
		s.Log.JSON = parseBool(value)
	default:
		return fmt.Errorf("unknown option")
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
