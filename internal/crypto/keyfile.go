package crypto

import (
	"crypto"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/youmark/pkcs8"

	"chatgate/internal/domain"
)

const (
	pemPrivateKey          = "PRIVATE KEY"
	pemEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	pemPublicKey           = "PUBLIC KEY"

	pbkdf2Iterations = 100_000
	pbkdf2SaltSize   = 16
)

var errNoPEM = errors.New("no PEM block found")

// MarshalPrivateKeyPEM encodes priv as PKCS#8 PEM. A non-empty passphrase
// produces an ENCRYPTED PRIVATE KEY block.
func MarshalPrivateKeyPEM(priv ed25519.PrivateKey, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemPrivateKey, Bytes: der}), nil
	}

	der, err := pkcs8.MarshalPrivateKey(priv, passphrase, &pkcs8.Opts{
		Cipher: pkcs8.AES256CBC,
		KDFOpts: pkcs8.PBKDF2Opts{
			SaltSize:       pbkdf2SaltSize,
			IterationCount: pbkdf2Iterations,
			HMACHash:       crypto.SHA256,
		},
	})
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemEncryptedPrivateKey, Bytes: der}), nil
}

// MarshalPublicKeyPEM encodes pub as a SubjectPublicKeyInfo PEM block.
func MarshalPublicKeyPEM(pub ed25519.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
}

// IsEncryptedPEM reports whether data holds an encrypted PKCS#8 private key.
func IsEncryptedPEM(data []byte) (bool, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return false, errNoPEM
	}
	return block.Type == pemEncryptedPrivateKey, nil
}

// ParsePrivateKeyPEM decodes a PKCS#8 PEM private key. Encrypted keys need
// the passphrase they were written with; a key of any other algorithm
// fails with domain.ErrWrongKeyType.
func ParsePrivateKeyPEM(data, passphrase []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEM
	}

	var (
		key any
		err error
	)
	switch block.Type {
	case pemPrivateKey:
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case pemEncryptedPrivateKey:
		if len(passphrase) == 0 {
			return nil, domain.ErrPassphraseRequired
		}
		key, err = pkcs8.ParsePKCS8PrivateKey(block.Bytes, passphrase)
	default:
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
	if err != nil {
		return nil, err
	}

	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", domain.ErrWrongKeyType, key)
	}
	return priv, nil
}

// ParsePublicKeyPEM decodes a SubjectPublicKeyInfo PEM public key and
// fails with domain.ErrWrongKeyType unless it is Ed25519.
func ParsePublicKeyPEM(data []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEM
	}
	if block.Type != pemPublicKey {
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", domain.ErrWrongKeyType, key)
	}
	return pub, nil
}
