package config

import "github.com/spf13/pflag"

// AddFlags registers every option flag on flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "Config file path (JSON, YAML or TOML; env "+EnvConfigPath+")")
	flags.BoolP("verbose", "v", false, "Verbose mode")

	flags.String("side-name", "", "Sidechain name for registration")
	flags.String("keys", "", "Sidechain validators keys file")
	flags.String("keys-password", "", "Password for encrypted keys file entries")

	flags.String("main-ipc", "", "Mainchain IPC path")
	flags.String("main-ws", "", "Mainchain WebSocket URL")
	flags.String("side-ipc", "", "Sidechain IPC path")
	flags.String("side-ws", "", "Sidechain WebSocket URL")

	flags.Bool("authorize-cc", false, "Authorize the chain connector plugin after registration")
	flags.String("cc-pass", "", "Chain connector password for both chains")
	flags.String("main-cc-pass", "", "Chain connector password for mainchain")
	flags.String("side-cc-pass", "", "Chain connector password for sidechain")

	flags.String("relayer-phrase", "", "Relayer passphrase for both chains")
	flags.String("main-relayer-phrase", "", "Relayer passphrase for mainchain")
	flags.String("side-relayer-phrase", "", "Relayer passphrase for sidechain")

	flags.Bool("prompt-path", false, "Prompt for the relayer derivation path")
	flags.String("phrase-path", "", "Derivation path for both chains")
	flags.String("main-phrase-path", "", "Derivation path for mainchain")
	flags.String("side-phrase-path", "", "Derivation path for sidechain")

	flags.String("register-mainchain-fee", "", "Custom registerMainchain transaction fee")
	flags.String("register-sidechain-fee", "", "Custom registerSidechain transaction fee")

	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Also write JSON logs to this file")
	flags.Bool("log-json", false, "Output logs as JSON")
}

// Load resolves settings from parsed flags, the config file named by
// --config or KLAYR_REG_CONFIG, the environment and defaults.
func Load(flags *pflag.FlagSet) (*Settings, error) {
	sources := []Source{NewFlagSource(flags)}

	path, _ := flags.GetString("config")
	env := NewEnvSource()
	if path == "" {
		path = env.ConfigPath()
	}
	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, file)
	}
	sources = append(sources, env, Defaults())
	return Resolve(sources...)
}
