// Package app wires application dependencies for the chatgate server.
//
// It builds the key store, services, backend client and HTTP handler from
// Config, exposing them via the Wire struct, and runs the HTTP listener
// until its context is cancelled.
package app
