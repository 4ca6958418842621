package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("klayr-reg", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func validSettings() *Settings {
	s := &Settings{
		MainWS:   "ws://127.0.0.1:7887/rpc-ws",
		SideIPC:  "~/.klayr/sidechain",
		SideName: "sidechain_one",
		Keys:     "keys.json",
	}
	s.SetRelayerPhrase("one two three")
	ApplyDefaults(s)
	return s
}

func TestResolve_Precedence(t *testing.T) {
	flags := NewMapSource("flag", map[string]string{"sideName": "from_flag"})
	file := NewMapSource("file", map[string]string{"sideName": "from_file", "keys": "file.json"})
	env := NewMapSource("env", map[string]string{"sideName": "from_env", "keys": "env.json", "mainWs": "ws://env"})

	s, err := Resolve(flags, file, env, Defaults())
	require.NoError(t, err)
	require.Equal(t, "from_flag", s.SideName)
	require.Equal(t, "file.json", s.Keys)
	require.Equal(t, "ws://env", s.MainWS)
	require.Equal(t, DefaultLogLevel, s.Log.Level)
}

func TestResolve_EmptyValueFallsThrough(t *testing.T) {
	first := NewMapSource("first", map[string]string{"sideName": ""})
	second := NewMapSource("second", map[string]string{"sideName": "side"})

	s, err := Resolve(first, second)
	require.NoError(t, err)
	require.Equal(t, "side", s.SideName)
}

func TestResolve_CombinedOverridesPerChain(t *testing.T) {
	src := NewMapSource("file", map[string]string{
		"relayerPhrase":     "shared phrase",
		"mainRelayerPhrase": "main phrase",
		"sideRelayerPhrase": "side phrase",
		"phrasePath":        "m/44'/134'/1'",
		"mainPhrasePath":    "m/44'/134'/2'",
		"ccPass":            "shared",
		"sideCcPass":        "side",
	})
	s, err := Resolve(src)
	require.NoError(t, err)
	require.Equal(t, "shared phrase", s.MainRelayerPhrase)
	require.Equal(t, "shared phrase", s.SideRelayerPhrase)
	require.Equal(t, "m/44'/134'/1'", s.MainPhrasePath)
	require.Equal(t, "m/44'/134'/1'", s.SidePhrasePath)
	require.Equal(t, "shared", s.MainCCPass)
	require.Equal(t, "shared", s.SideCCPass)
}

func TestResolve_PerChainValues(t *testing.T) {
	src := NewMapSource("file", map[string]string{
		"mainRelayerPhrase": "main phrase",
		"sideRelayerPhrase": "side phrase",
	})
	s, err := Resolve(src)
	require.NoError(t, err)
	require.Equal(t, "main phrase", s.MainRelayerPhrase)
	require.Equal(t, "side phrase", s.SideRelayerPhrase)
}

func TestFlagSource_OnlyChangedFlags(t *testing.T) {
	fs := parseFlags(t, "--side-name", "flagged", "--authorize-cc", "-v")
	src := NewFlagSource(fs)

	s, err := Resolve(src, NewMapSource("file", map[string]string{"keys": "k.json", "sideName": "file"}))
	require.NoError(t, err)
	require.Equal(t, "flagged", s.SideName)
	require.Equal(t, "k.json", s.Keys)
	require.True(t, s.AuthorizeCC)
	require.True(t, s.Log.Verbose)
	require.Equal(t, "debug", s.Log.LevelOrVerbose())
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "klayr-reg.yaml", `
sideName: yaml_side
mainWs: ws://main:7887/rpc-ws
authorizeCc: true
registerMainchainFee: 1500000000
`)
	file, err := LoadFile(path)
	require.NoError(t, err)

	s, err := Resolve(file)
	require.NoError(t, err)
	require.Equal(t, "yaml_side", s.SideName)
	require.Equal(t, "ws://main:7887/rpc-ws", s.MainWS)
	require.True(t, s.AuthorizeCC)
	require.Equal(t, "1500000000", s.RegisterMainchainFee)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "klayr-reg.json", `{"sideName": "json_side", "keys": "./keys.json", "registerSidechainFee": "2000000000"}`)
	file, err := LoadFile(path)
	require.NoError(t, err)

	s, err := Resolve(file)
	require.NoError(t, err)
	require.Equal(t, "json_side", s.SideName)
	require.Equal(t, "./keys.json", s.Keys)
	require.Equal(t, "2000000000", s.RegisterSidechainFee)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestEnvSource(t *testing.T) {
	t.Setenv("KLAYR_REG_SIDECHAIN_NAME", "env_side")
	t.Setenv("KLAYR_REG_AUTHORIZE_CC", "true")
	t.Setenv("KLAYR_REG_MAINCHAIN_CC_PASSWORD", "secret")

	s, err := Resolve(NewEnvSource())
	require.NoError(t, err)
	require.Equal(t, "env_side", s.SideName)
	require.True(t, s.AuthorizeCC)
	require.Equal(t, "secret", s.MainCCPass)
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"sideName": "file_side", "keys": "file.json"}`)
	t.Setenv(EnvConfigPath, path)
	t.Setenv("KLAYR_REG_SIDECHAIN_KEYS", "env.json")
	t.Setenv("KLAYR_REG_MAINCHAIN_WS", "ws://env")

	s, err := Load(parseFlags(t, "--side-name", "flag_side"))
	require.NoError(t, err)
	require.Equal(t, "flag_side", s.SideName)
	require.Equal(t, "file.json", s.Keys)
	require.Equal(t, "ws://env", s.MainWS)
}

func TestLoad_ConfigFlagMissingFile(t *testing.T) {
	_, err := Load(parseFlags(t, "-c", filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	s := &Settings{MainPhrasePath: "m/44'/134'/5'"}
	ApplyDefaults(s)
	require.Equal(t, "m/44'/134'/5'", s.MainPhrasePath)
	require.Equal(t, crypto.DefaultDerivationPath, s.SidePhrasePath)
	require.Equal(t, DefaultLogLevel, s.Log.Level)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validSettings()))
	require.Error(t, Validate(nil))

	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"no main endpoint", func(s *Settings) { s.MainWS = "" }, "mainchain endpoint"},
		{"no side endpoint", func(s *Settings) { s.SideIPC = "" }, "sidechain endpoint"},
		{"bad name", func(s *Settings) { s.SideName = "Bad Name" }, "side-name"},
		{"no keys", func(s *Settings) { s.Keys = "" }, "keys"},
		{"no side phrase", func(s *Settings) { s.SideRelayerPhrase = "" }, "sidechain relayer phrase"},
		{"bad path", func(s *Settings) { s.MainPhrasePath = "m/44/134" }, "main-phrase-path"},
		{"cc without pass", func(s *Settings) { s.AuthorizeCC = true }, "connector password"},
		{"bad fee", func(s *Settings) { s.RegisterSidechainFee = "-1" }, "register-sidechain-fee"},
	}
	for _, tt := range tests {
		s := validSettings()
		tt.mutate(s)
		err := Validate(s)
		require.Error(t, err, tt.name)
		require.Contains(t, err.Error(), tt.want, tt.name)
	}
}

func TestRedacted(t *testing.T) {
	s := validSettings()
	s.SetCCPass("hunter2")
	s.KeysPassword = "pw"

	r := s.Redacted()
	require.Equal(t, redacted, r.RelayerPhrase)
	require.Equal(t, redacted, r.MainRelayerPhrase)
	require.Equal(t, redacted, r.SideCCPass)
	require.Equal(t, redacted, r.KeysPassword)
	require.Equal(t, s.SideName, r.SideName)
	// Original untouched.
	require.Equal(t, "hunter2", s.CCPass)
}

func TestRegistration(t *testing.T) {
	s := validSettings()
	s.MainRelayerPhrase = "main only"
	s.RegisterSidechainFee = "2500000000"
	s.AuthorizeCC = true
	s.SetCCPass("pw")

	cfg, err := s.Registration()
	require.NoError(t, err)
	require.Equal(t, "sidechain_one", cfg.SidechainName)
	require.Equal(t, "ws://127.0.0.1:7887/rpc-ws", cfg.Main.Endpoint.WS)
	require.Equal(t, "~/.klayr/sidechain", cfg.Side.Endpoint.IPC)
	require.Equal(t, "main only", cfg.Main.RelayerPhrase)
	require.Equal(t, "one two three", cfg.Side.RelayerPhrase)
	require.Equal(t, crypto.DefaultDerivationPath, cfg.Side.DerivationPath)
	require.Equal(t, "pw", cfg.Main.ConnectorPassword)
	require.True(t, cfg.AuthorizeChainConnector)
	require.Nil(t, cfg.RegisterMainchainFee)
	require.NotNil(t, cfg.RegisterSidechainFee)
	require.Equal(t, uint64(2_500_000_000), *cfg.RegisterSidechainFee)

	s.RegisterMainchainFee = "abc"
	_, err = s.Registration()
	require.Error(t, err)
}

func TestSplitEndpoint(t *testing.T) {
	ipc, ws := SplitEndpoint("ws://localhost:7887/rpc-ws")
	require.Empty(t, ipc)
	require.Equal(t, "ws://localhost:7887/rpc-ws", ws)

	ipc, ws = SplitEndpoint(" ~/.klayr/klayr-core ")
	require.Equal(t, "~/.klayr/klayr-core", ipc)
	require.Empty(t, ws)
}
