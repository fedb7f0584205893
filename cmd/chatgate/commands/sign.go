package commands

import (
	"crypto/ed25519"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"chatgate/internal/config"
	"chatgate/internal/crypto"
	"chatgate/internal/domain"
	"chatgate/internal/protocol/logintoken"
	"chatgate/internal/store"
)

// sign <username> <timeout-seconds>: print a login query valid for the
// given number of seconds.
func signCmd() *cobra.Command {
	var (
		keyPath  string
		baseURL  string
		passFile string
	)
	cmd := &cobra.Command{
		Use:   "sign <username> <timeout-seconds>",
		Short: "Sign a login token for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || timeout <= 0 {
				return fmt.Errorf("timeout must be a positive number of seconds: %q", args[1])
			}

			if keyPath == "" {
				keyPath, err = signingKeyPath()
				if err != nil {
					return err
				}
			}

			priv, err := loadSigningKey(cmd, keyPath, passFile)
			if err != nil {
				return err
			}
			defer crypto.Wipe(priv)

			expiry := time.Now().Unix() + timeout
			tok, err := logintoken.Encode(domain.Username(args[0]), expiry, priv)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), baseURL+tok.Query())
			return nil
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "private key file (default: signing_key from config, else "+config.DefaultSigningKey+")")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "prefix the query with this URL")
	cmd.Flags().StringVar(&passFile, "passphrase-file", "", "read the key passphrase from a file instead of prompting")
	return cmd
}

func signingKeyPath() (string, error) {
	s, err := loadSettings()
	if err != nil {
		if configMissing(err) {
			return config.DefaultSigningKey, nil
		}
		return "", err
	}
	return s.SigningKey, nil
}

func loadSigningKey(cmd *cobra.Command, path, passFile string) (ed25519.PrivateKey, error) {
	keys := store.NewKeyFileStore()
	enc, err := keys.IsEncrypted(path)
	if err != nil {
		return nil, err
	}

	var pass []byte
	if enc {
		pass, err = readPassphrase(cmd, "Password: ", passFile)
		if err != nil {
			return nil, err
		}
		defer crypto.Wipe(pass)
	}
	return keys.LoadPrivateKey(path, pass)
}
