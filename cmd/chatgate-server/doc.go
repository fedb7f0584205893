// Command chatgate-server runs the chatgate HTTP server: visitors log in
// with a signed link produced by `chatgate sign` and chat with a hosted
// assistant until their session goes idle.
//
// Usage
//
//	chatgate-server [env] [--config chatgate.yaml]
//
// env selects a section of the config file (default "dev", or
// $CHATGATE_ENV). The config path defaults to chatgate.yaml, or
// $CHATGATE_CONFIG. A .env file in the working directory is loaded first;
// the backend API key is read from the variable named by
// backend.api_key_env.
//
// The process refuses to start when the public key cannot be loaded. It
// shuts down gracefully on SIGINT or SIGTERM. The HTTP API is described in
// package chatgate/internal/server.
package main
