package commands

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chatgate/internal/protocol/logintoken"
	"chatgate/internal/store"
)

// ErrTokenInvalid is returned by verify after it has printed the reason.
var ErrTokenInvalid = errors.New("login token rejected")

// verify <query-or-url>: check a login token the way the server would.
func verifyCmd() *cobra.Command {
	var pubPath string
	cmd := &cobra.Command{
		Use:   "verify <query-or-url>",
		Short: "Check a login token against the configured public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pubPath == "" {
				s, err := loadSettings()
				if err != nil {
					return fmt.Errorf("load config (or pass --pubkey): %w", err)
				}
				pubPath = s.PubKey
			}
			pub, err := store.NewKeyFileStore().LoadPublicKey(pubPath)
			if err != nil {
				return err
			}

			q, err := parseLoginQuery(args[0])
			if err != nil {
				return err
			}
			res := logintoken.Authenticate(q.Get(logintoken.ParamMessage), q.Get(logintoken.ParamSignature), pub, time.Now())

			out := cmd.OutOrStdout()
			if !res.Valid {
				fmt.Fprintf(out, "invalid reason=%s\n", res.Reason)
				return ErrTokenInvalid
			}
			fmt.Fprintf(out, "valid user=%s\n", res.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&pubPath, "pubkey", "", "public key file (default: pubkey from config)")
	return cmd
}

// parseLoginQuery accepts a full URL, a "?message=...&signature=..." query
// or the bare query.
func parseLoginQuery(s string) (url.Values, error) {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[i+1:]
	}
	q, err := url.ParseQuery(s)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return q, nil
}
