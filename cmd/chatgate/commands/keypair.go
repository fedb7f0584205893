package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatgate/internal/crypto"
	"chatgate/internal/store"
)

// keypair <prefix>: write <prefix>.key and <prefix>.pub.
func keypairCmd() *cobra.Command {
	var (
		passFile string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "keypair <prefix>",
		Short: "Generate an Ed25519 keypair for signing login tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := readPassphrase(cmd, "Password (Enter for none): ", passFile)
			if err != nil {
				return err
			}
			defer crypto.Wipe(pass)

			pub, priv, err := crypto.GenerateEd25519()
			if err != nil {
				return err
			}
			defer crypto.Wipe(priv)

			privPath, pubPath, err := store.WriteKeypair(args[0], priv, pass, force)
			if err != nil {
				return err
			}
			fp, err := crypto.Fingerprint(pub)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(pass) == 0 {
				fmt.Fprintln(out, "Private key is not encrypted.")
			}
			fmt.Fprintf(out, "Wrote %s and %s\nFingerprint: %s\n", privPath, pubPath, fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&passFile, "passphrase-file", "", "read the passphrase from a file instead of prompting")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return cmd
}
