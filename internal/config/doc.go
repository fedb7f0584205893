// Package config loads chatgate's settings.
//
// Settings live in one YAML file with a top-level section per environment
// name. The environment is chosen by whoever starts the process (a
// positional argument to chatgate-server, --env for the CLI) and defaults to
// "dev":
//
//	dev:
//	  pubkey: keys/dev.pub
//	  signing_key: keys/dev.key
//	  assistant_id: asst_123
//	  idle: {poll: 60, timeout: 1800}
//
// Durations are whole seconds. Relative paths are resolved against the
// directory holding the config file. Secrets such as the backend API key
// are never read from YAML; they come from the process environment, which
// LoadDotEnv can populate from a .env file.
package config
