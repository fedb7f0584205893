package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chatgate/internal/app"
	"chatgate/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	configPath := os.Getenv("CHATGATE_CONFIG")
	if configPath == "" {
		configPath = "chatgate.yaml"
	}

	cmd := &cobra.Command{
		Use:           "chatgate-server [env]",
		Short:         "Serve the chatgate assistant",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}

			env := os.Getenv("CHATGATE_ENV")
			if len(args) == 1 {
				env = args[0]
			}
			settings, err := config.Load(configPath, env)
			if err != nil {
				return err
			}

			a, err := app.New(app.Config{Settings: settings})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", configPath, "config file")
	cmd.SetContext(context.Background())
	return cmd
}
