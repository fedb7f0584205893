package domain

import (
	"context"
	"crypto/ed25519"
)

// PublicKeyProvider loads the verification key used to check login tokens.
type PublicKeyProvider interface {
	LoadPublicKey(path string) (ed25519.PublicKey, error)
}

// PrivateKeyProvider loads the signing key used by the offline signer.
type PrivateKeyProvider interface {
	IsEncrypted(path string) (bool, error)
	LoadPrivateKey(path string, passphrase []byte) (ed25519.PrivateKey, error)
}

// Authenticator turns the raw login parameters into an AuthResult.
type Authenticator interface {
	Authenticate(ctx context.Context, message, signature string) AuthResult
}

// TurnStream yields the text of one assistant reply as it is generated.
//
// Next returns io.EOF once the reply is complete; Handle is only meaningful
// after that. Close must always be called.
type TurnStream interface {
	Next() (string, error)
	Handle() ContinuationHandle
	Close() error
}

// Backend is the conversational-AI service that produces replies.
type Backend interface {
	StreamTurn(ctx context.Context, req TurnRequest) (TurnStream, error)
}

// ToolResolver supplies the tool configuration for a turn.
type ToolResolver interface {
	ToolConfig(ctx context.Context) (*ToolConfig, error)
}
