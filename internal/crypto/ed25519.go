package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

var (
	// ErrMalformedSignature is returned when a signature is not 64 bytes.
	ErrMalformedSignature = errors.New("ed25519: malformed signature")
	// ErrMalformedPublicKey is returned when a public key is not 32 bytes.
	ErrMalformedPublicKey = errors.New("ed25519: malformed public key")
)

// GenerateEd25519 returns a new Ed25519 signing key pair.
func GenerateEd25519() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// SignEd25519 signs msg with priv and returns the detached signature.
func SignEd25519(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// VerifyEd25519 verifies sig over msg with pub.
//
// A signature that simply does not match returns false with a nil error. An
// error is only returned when sig or pub have the wrong size.
func VerifyEd25519(pub ed25519.PublicKey, msg, sig []byte) (bool, error) {
	if len(pub) != ed25519.PublicKeySize {
		return false, ErrMalformedPublicKey
	}
	if len(sig) != ed25519.SignatureSize {
		return false, ErrMalformedSignature
	}
	return ed25519.Verify(pub, msg, sig), nil
}
