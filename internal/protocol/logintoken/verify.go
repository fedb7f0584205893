package logintoken

import (
	"crypto/ed25519"
	"time"

	"chatgate/internal/crypto"
	"chatgate/internal/domain"
)

// Verify reports whether sig is a valid signature of message under pub.
// It returns an error only when sig or pub cannot be processed at all
// (wrong length); a well-formed signature that does not match is simply
// false.
func Verify(message string, sig []byte, pub ed25519.PublicKey) (bool, error) {
	return crypto.VerifyEd25519(pub, []byte(message), sig)
}

// Authenticate validates a login token against pub at time now.
func Authenticate(rawMessage, rawSignature string, pub ed25519.PublicKey, now time.Time) domain.AuthResult {
	tok, err := Decode(rawMessage, rawSignature)
	if err != nil {
		return domain.Rejected(domain.ReasonMalformed, err)
	}
	claims, err := ParseMessage(tok.Message)
	if err != nil {
		return domain.Rejected(domain.ReasonMalformed, err)
	}

	ok, err := Verify(tok.Message, tok.Signature, pub)
	if err != nil {
		// A signature of the wrong length never came from our signer.
		return domain.Rejected(domain.ReasonMalformed, err)
	}
	if !ok {
		return domain.Rejected(domain.ReasonBadSignature, nil)
	}

	if claims.Expiry <= now.Unix() {
		return domain.Rejected(domain.ReasonExpired, nil)
	}
	return domain.Accepted(claims.Username)
}
