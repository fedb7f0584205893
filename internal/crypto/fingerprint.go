package crypto

import (
	"crypto/ed25519"

	"golang.org/x/crypto/ssh"

	"chatgate/internal/domain"
)

// Fingerprint returns the OpenSSH SHA-256 fingerprint of pub
// ("SHA256:" followed by unpadded base64), the same string
// `ssh-keygen -lf` prints for the key.
func Fingerprint(pub ed25519.PublicKey) (domain.Fingerprint, error) {
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(ssh.FingerprintSHA256(sshPub)), nil
}
