package logintoken

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"chatgate/internal/crypto"
	"chatgate/internal/domain"
)

// Query parameter names.
const (
	ParamMessage   = "message"
	ParamSignature = "signature"
)

// ErrInvalidUsername is returned when encoding a username that could not be
// parsed back out of a message.
var ErrInvalidUsername = errors.New("username must be non-empty and must not contain ':'")

// Token is an encoded login token.
type Token struct {
	Message   string
	Signature string // padded URL-safe base64
}

// Query returns "?message=...&signature=..." with the username escaped for
// use in a URL. The signature alphabet needs no escaping.
func (t Token) Query() string {
	return "?" + ParamMessage + "=" + url.QueryEscape(t.Message) +
		"&" + ParamSignature + "=" + t.Signature
}

// Decoded is a token whose signature has been base64-decoded but not yet
// verified.
type Decoded struct {
	Message   string
	Signature []byte
}

// FormatMessage builds the signed message for username and expiry.
func FormatMessage(username domain.Username, expiry int64) (string, error) {
	if username == "" || strings.Contains(string(username), ":") {
		return "", ErrInvalidUsername
	}
	return string(username) + ":" + strconv.FormatInt(expiry, 10), nil
}

// Encode signs "<username>:<expiry>" with priv.
func Encode(username domain.Username, expiry int64, priv ed25519.PrivateKey) (Token, error) {
	msg, err := FormatMessage(username, expiry)
	if err != nil {
		return Token{}, err
	}
	sig := crypto.SignEd25519(priv, []byte(msg))
	return Token{Message: msg, Signature: crypto.B64URL(sig)}, nil
}

// Decode checks that both parameters are present and decodes the signature.
// Every failure wraps domain.ErrMalformedToken.
func Decode(rawMessage, rawSignature string) (Decoded, error) {
	if rawMessage == "" || rawSignature == "" {
		return Decoded{}, fmt.Errorf("%w: missing %s or %s", domain.ErrMalformedToken, ParamMessage, ParamSignature)
	}
	sig, err := crypto.DecodeB64URL(rawSignature)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: signature: %v", domain.ErrMalformedToken, err)
	}
	return Decoded{Message: rawMessage, Signature: sig}, nil
}

// ParseMessage splits a message at its first ':' into username and expiry.
// Every failure wraps domain.ErrMalformedToken.
func ParseMessage(message string) (domain.Claims, error) {
	user, exp, ok := strings.Cut(message, ":")
	if !ok {
		return domain.Claims{}, fmt.Errorf("%w: no ':' in message", domain.ErrMalformedToken)
	}
	if user == "" {
		return domain.Claims{}, fmt.Errorf("%w: empty username", domain.ErrMalformedToken)
	}
	expiry, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return domain.Claims{}, fmt.Errorf("%w: expiry %q is not an integer", domain.ErrMalformedToken, exp)
	}
	return domain.Claims{Username: domain.Username(user), Expiry: expiry}, nil
}
