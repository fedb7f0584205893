package domain

import (
	"errors"
	"fmt"
)

// User-facing messages. Every authentication failure shows the same text.
const (
	MsgInvalidToken    = "Invalid login token."
	MsgSessionTimedOut = "Session timed out."
)

var (
	// ErrWrongKeyType is returned when a key file holds a non-Ed25519 key.
	ErrWrongKeyType = errors.New("key is not an Ed25519 key")
	// ErrPassphraseRequired is returned when an encrypted key is loaded without a passphrase.
	ErrPassphraseRequired = errors.New("key is encrypted: passphrase required")

	// ErrMalformedToken is wrapped by every decode or parse failure of a login token.
	ErrMalformedToken = errors.New("malformed login token")
	// ErrInvalidToken is returned when a login attempt is rejected.
	ErrInvalidToken = errors.New("invalid login token")

	// ErrUnauthenticated is returned for operations that need a logged-in session.
	ErrUnauthenticated = errors.New("session is not authenticated")
	// ErrSessionTimedOut is returned for any operation on a timed-out session.
	ErrSessionTimedOut = errors.New("session timed out")
	// ErrSessionNotFound is returned when no session exists for an id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTurnInProgress is returned when a second turn starts before the first finished.
	ErrTurnInProgress = errors.New("a turn is already in progress")
	// ErrNoPendingTurn is returned when a turn is completed that was never started.
	ErrNoPendingTurn = errors.New("no pending turn")
)

// KeyLoadError reports a key file that could not be read or decoded.
type KeyLoadError struct {
	Path string
	Err  error
}

func (e *KeyLoadError) Error() string {
	return fmt.Sprintf("load key %s: %v", e.Path, e.Err)
}

func (e *KeyLoadError) Unwrap() error { return e.Err }
