package config

import "github.com/Klingon-tech/klayr-reg/pkg/crypto"

// DefaultLogLevel is used when no level is configured.
const DefaultLogLevel = "info"

// Defaults returns the lowest precedence source.
func Defaults() Source {
	return NewMapSource("default", map[string]string{
		"logLevel": DefaultLogLevel,
	})
}

// ApplyDefaults fills derivation paths still empty after resolution and
// prompting with the Klayr default path.
func ApplyDefaults(s *Settings) {
	if s.MainPhrasePath == "" {
		s.MainPhrasePath = crypto.DefaultDerivationPath
	}
	if s.SidePhrasePath == "" {
		s.SidePhrasePath = crypto.DefaultDerivationPath
	}
	if s.Log.Level == "" {
		s.Log.Level = DefaultLogLevel
	}
}
