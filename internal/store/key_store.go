package store

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chatgate/internal/crypto"
	"chatgate/internal/domain"
)

const (
	privateKeySuffix = ".key"
	publicKeySuffix  = ".pub"
)

// ErrKeyExists is returned by WriteKeypair when it would overwrite a key.
var ErrKeyExists = errors.New("key file already exists")

// KeyFileStore loads PEM keys from disk.
type KeyFileStore struct {
	mu     sync.Mutex
	public map[string]ed25519.PublicKey
}

// NewKeyFileStore returns an empty KeyFileStore.
func NewKeyFileStore() *KeyFileStore {
	return &KeyFileStore{public: make(map[string]ed25519.PublicKey)}
}

// LoadPublicKey returns the Ed25519 public key stored at path. The first
// successful load is cached; failures are not, so a fixed file can be
// retried.
func (s *KeyFileStore) LoadPublicKey(path string) (ed25519.PublicKey, error) {
	key := filepath.Clean(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if pub, ok := s.public[key]; ok {
		return pub, nil
	}

	b, err := readKeyFile(key)
	if err != nil {
		return nil, err
	}
	pub, err := crypto.ParsePublicKeyPEM(b)
	if err != nil {
		return nil, &domain.KeyLoadError{Path: key, Err: err}
	}
	s.public[key] = pub
	return pub, nil
}

// IsEncrypted reports whether the private key at path needs a passphrase.
func (s *KeyFileStore) IsEncrypted(path string) (bool, error) {
	b, err := readKeyFile(path)
	if err != nil {
		return false, err
	}
	enc, err := crypto.IsEncryptedPEM(b)
	if err != nil {
		return false, &domain.KeyLoadError{Path: path, Err: err}
	}
	return enc, nil
}

// LoadPrivateKey decodes the private key at path, decrypting it with
// passphrase when the file is encrypted.
func (s *KeyFileStore) LoadPrivateKey(path string, passphrase []byte) (ed25519.PrivateKey, error) {
	b, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(b)

	priv, err := crypto.ParsePrivateKeyPEM(b, passphrase)
	if err != nil {
		return nil, &domain.KeyLoadError{Path: path, Err: err}
	}
	return priv, nil
}

// WriteKeypair writes priv and its public half to prefix+".key" and
// prefix+".pub". The private key is encrypted when passphrase is non-empty.
// Existing files are only replaced when overwrite is set.
func WriteKeypair(prefix string, priv ed25519.PrivateKey, passphrase []byte, overwrite bool) (privPath, pubPath string, err error) {
	privPath = prefix + privateKeySuffix
	pubPath = prefix + publicKeySuffix

	if !overwrite {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return "", "", fmt.Errorf("%w: %s", ErrKeyExists, p)
			}
		}
	}

	privPEM, err := crypto.MarshalPrivateKeyPEM(priv, passphrase)
	if err != nil {
		return "", "", err
	}
	defer crypto.Wipe(privPEM)

	pubPEM, err := crypto.MarshalPublicKeyPEM(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return "", "", err
	}

	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", "", err
		}
	}
	if err := writeKeyFile(privPath, privPEM, 0o600, overwrite); err != nil {
		return "", "", err
	}
	if err := writeKeyFile(pubPath, pubPEM, 0o644, overwrite); err != nil {
		return "", "", err
	}
	return privPath, pubPath, nil
}

// Compile-time assertions that KeyFileStore implements the key provider interfaces.
var (
	_ domain.PublicKeyProvider  = (*KeyFileStore)(nil)
	_ domain.PrivateKeyProvider = (*KeyFileStore)(nil)
)
