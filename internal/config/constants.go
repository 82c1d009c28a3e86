package config

// Application constants
const (
	AppName  = "ecdash"
	AppTitle = "극지식물 최적 EC 농도 연구"

	// EnvPrefix namespaces every environment variable, e.g. ECDASH_SERVER_PORT.
	EnvPrefix = "ECDASH"
	// ConfigFileEnv names the variable holding an explicit YAML config path.
	ConfigFileEnv     = "ECDASH_CONFIG"
	DefaultConfigFile = "config.yaml"
	DotEnvFile        = ".env"
)

