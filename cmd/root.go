package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kubev2v/compute-offload-agent/internal/config"
)

const envPrefix = "OFFLOAD"

var (
	cfg        = config.NewConfigurationWithOptionsAndDefaults()
	configFile string
	envFile    string
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "compute-offload-agent",
		Short:         "Offloads CPU-bound jobs to a bounded pool of workers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: cobrautil.CommandStack(
			loadEnvFile,
			cobrautil.SyncViperPreRunE(envPrefix),
			loadConfigFile,
			setupLogging,
		),
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config-file", "", "path to a yaml configuration file")
	flags.StringVar(&envFile, "env-file", ".env", "path to a dotenv file, ignored when missing")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console, json)")

	root.AddCommand(NewRunCommand(), NewLoadCommand(), NewConfigCommand())
	return root
}

func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}

// loadConfigFile overlays the configuration file, then reapplies the flags
// that were set explicitly so they keep precedence over the file.
func loadConfigFile(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		return nil
	}

	changed := map[string]string{}
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := config.LoadFile(configFile, cfg); err != nil {
		return err
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("failed to reapply flag %s: %w", name, err)
		}
	}
	return nil
}
