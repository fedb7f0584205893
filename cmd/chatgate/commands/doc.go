// Package commands defines the chatgate CLI.
//
// Commands
//
//   - keypair      Generate an Ed25519 keypair for signing login tokens
//   - sign         Sign a login token for a user
//   - verify       Check a login token against the configured public key
//   - fingerprint  Print the fingerprint of a key file
//
// # Implementation
//
// Commands that need settings read the environment section named by --env
// from the file named by --config. A .env file in the working directory is
// loaded first so API keys and overrides can live outside the YAML.
package commands
