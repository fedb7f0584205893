// Package crypto exposes the minimal primitives used by chatgate.
//
// Contents
//
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - PEM encoding of keys: PKCS#8 private keys, optionally passphrase
//     encrypted, and SubjectPublicKeyInfo public keys (MarshalPrivateKeyPEM,
//     ParsePrivateKeyPEM, MarshalPublicKeyPEM, ParsePublicKeyPEM)
//   - URL-safe base64 for signatures carried in query strings (B64URL,
//     DecodeB64URL)
//   - SSH-style public-key fingerprints for display/logging (Fingerprint)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// Encrypted private keys use PBES2 with PBKDF2-HMAC-SHA256 and AES-256-CBC,
// which OpenSSL and Python's cryptography package both read. Callers should
// Wipe passphrases and private keys once they are done with them.
package crypto
