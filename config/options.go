package config

// Option describes one setting and where it can come from.
type Option struct {
	// Key is the config file key.
	Key string
	// Flag is the long command-line flag, without dashes.
	Flag string
	// Env is the environment variable name.
	Env string
	// Secret options are never logged.
	Secret bool
}

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "KLAYR_REG_CONFIG"

// Options lists every resolvable setting.
var Options = []Option{
	{Key: "mainIpc", Flag: "main-ipc", Env: "KLAYR_REG_MAINCHAIN_IPC"},
	{Key: "mainWs", Flag: "main-ws", Env: "KLAYR_REG_MAINCHAIN_WS"},
	{Key: "sideIpc", Flag: "side-ipc", Env: "KLAYR_REG_SIDECHAIN_IPC"},
	{Key: "sideWs", Flag: "side-ws", Env: "KLAYR_REG_SIDECHAIN_WS"},

	{Key: "sideName", Flag: "side-name", Env: "KLAYR_REG_SIDECHAIN_NAME"},
	{Key: "keys", Flag: "keys", Env: "KLAYR_REG_SIDECHAIN_KEYS"},
	{Key: "keysPassword", Flag: "keys-password", Env: "KLAYR_REG_KEYS_PASSWORD", Secret: true},

	{Key: "relayerPhrase", Flag: "relayer-phrase", Env: "KLAYR_REG_RELAYER_PHRASE", Secret: true},
	{Key: "mainRelayerPhrase", Flag: "main-relayer-phrase", Env: "KLAYR_REG_MAINCHAIN_RELAYER_PHRASE", Secret: true},
	{Key: "sideRelayerPhrase", Flag: "side-relayer-phrase", Env: "KLAYR_REG_SIDECHAIN_RELAYER_PHRASE", Secret: true},
	{Key: "promptPath", Flag: "prompt-path", Env: "KLAYR_REG_PROMPT_PATH"},
	{Key: "phrasePath", Flag: "phrase-path", Env: "KLAYR_REG_PHRASE_PATH"},
	{Key: "mainPhrasePath", Flag: "main-phrase-path", Env: "KLAYR_REG_MAINCHAIN_PHRASE_PATH"},
	{Key: "sidePhrasePath", Flag: "side-phrase-path", Env: "KLAYR_REG_SIDECHAIN_PHRASE_PATH"},

	{Key: "authorizeCc", Flag: "authorize-cc", Env: "KLAYR_REG_AUTHORIZE_CC"},
	{Key: "ccPass", Flag: "cc-pass", Env: "KLAYR_REG_CC_PASSWORD", Secret: true},
	{Key: "mainCcPass", Flag: "main-cc-pass", Env: "KLAYR_REG_MAINCHAIN_CC_PASSWORD", Secret: true},
	{Key: "sideCcPass", Flag: "side-cc-pass", Env: "KLAYR_REG_SIDECHAIN_CC_PASSWORD", Secret: true},

	{Key: "registerMainchainFee", Flag: "register-mainchain-fee", Env: "KLAYR_REG_REGISTER_MAINCHAIN_FEE"},
	{Key: "registerSidechainFee", Flag: "register-sidechain-fee", Env: "KLAYR_REG_REGISTER_SIDECHAIN_FEE"},

	{Key: "verbose", Flag: "verbose", Env: "KLAYR_REG_VERBOSE"},
	{Key: "logLevel", Flag: "log-level", Env: "KLAYR_REG_LOG_LEVEL"},
	{Key: "logFile", Flag: "log-file", Env: "KLAYR_REG_LOG_FILE"},
	{Key: "logJson", Flag: "log-json", Env: "KLAYR_REG_LOG_JSON"},
}
