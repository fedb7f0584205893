package crypto

import "encoding/base64"

// B64URL returns padded URL-safe base64, the form signatures take in login URLs.
func B64URL(b []byte) string { return base64.URLEncoding.EncodeToString(b) }

// DecodeB64URL strictly decodes padded URL-safe base64. Standard-alphabet
// characters and missing padding are rejected.
func DecodeB64URL(s string) ([]byte, error) {
	return base64.URLEncoding.Strict().DecodeString(s)
}
