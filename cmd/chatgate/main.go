package main

import (
	"errors"
	"fmt"
	"os"

	"chatgate/cmd/chatgate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		if !errors.Is(err, commands.ErrTokenInvalid) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
