package commands

import (
	"crypto/ed25519"
	"fmt"

	"github.com/spf13/cobra"

	"chatgate/internal/crypto"
	"chatgate/internal/store"
)

func fingerprintCmd() *cobra.Command {
	var passFile string
	cmd := &cobra.Command{
		Use:   "fingerprint <key-file>",
		Short: "Print the fingerprint of a public or private key file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := loadAnyPublicKey(cmd, args[0], passFile)
			if err != nil {
				return err
			}
			fp, err := crypto.Fingerprint(pub)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&passFile, "passphrase-file", "", "passphrase for an encrypted private key")
	return cmd
}

// loadAnyPublicKey reads path as a public key, or derives the public half
// of a private key.
func loadAnyPublicKey(cmd *cobra.Command, path, passFile string) (ed25519.PublicKey, error) {
	keys := store.NewKeyFileStore()
	pub, pubErr := keys.LoadPublicKey(path)
	if pubErr == nil {
		return pub, nil
	}
	if _, err := keys.IsEncrypted(path); err != nil {
		return nil, pubErr
	}
	priv, err := loadSigningKey(cmd, path, passFile)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(priv)
	return priv.Public().(ed25519.PublicKey), nil
}
