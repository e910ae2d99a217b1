package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackcoderx/courier/pkg/core"
	"github.com/blackcoderx/courier/pkg/tui"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// errFailed signals a run that completed but did not pass. Its details
// have already been printed.
var errFailed = errors.New("failed")

var (
	cfgFile string
	envName string
	rootCmd = &cobra.Command{
		Use:           "courier",
		Short:         "Courier - compose, send and test HTTP requests from your terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Courier builds REST and GraphQL requests, sends them, runs test scripts
against the responses and keeps a history of everything you sent.

Run without arguments for the interactive request builder.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if it exists (optional, warn if malformed)
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file: %v\n", err)
			}

			if err := core.InitializeFolder(core.FolderName, cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("error initializing config folder: %w", err)
			}

			// First run creates config.json after the initial read.
			_ = viper.ReadInConfig()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			env, name, err := a.environment(envName)
			if err != nil {
				return err
			}
			return tui.Run(tui.Options{Runner: a.runner, Env: env, EnvName: name})
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .courier/config.json)")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "", "environment for {{variable}} substitution (default from config)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(core.FolderName)
		viper.SetConfigType("json")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("courier")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
