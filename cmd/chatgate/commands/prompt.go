package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassphrase returns the passphrase from file when set, otherwise it
// prompts on stderr. A terminal stdin is read with echo disabled; anything
// else is read up to the first newline.
func readPassphrase(cmd *cobra.Command, prompt, file string) ([]byte, error) {
	if file != "" {
		return readSecretFile(file)
	}

	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		return b, nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return trimNewlines(line), nil
}

// readSecretFile reads a passphrase file, dropping trailing newlines.
func readSecretFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return trimNewlines(data), nil
}

func trimNewlines(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
