package commands

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"chatgate/internal/config"
)

const (
	envConfigPath = "CHATGATE_CONFIG"
	envName       = "CHATGATE_ENV"
	defaultConfig = "chatgate.yaml"
)

var (
	configPath string
	envFlag    string
)

// Execute runs the root command.
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatgate",
		Short:         "Login tokens for the chatgate assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(".env")
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", envOr(envConfigPath, defaultConfig), "config file")
	root.PersistentFlags().StringVar(&envFlag, "env", envOr(envName, config.DefaultEnv), "config environment")

	root.AddCommand(keypairCmd(), signCmd(), verifyCmd(), fingerprintCmd())
	return root
}

// loadSettings reads the selected environment. A missing config file is
// reported as fs.ErrNotExist so callers with usable defaults can fall back.
func loadSettings() (*config.Config, error) {
	return config.Load(configPath, envFlag)
}

func configMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
