package cmd

import (
	"github.com/spf13/cobra"
)

func NewConfigCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as yaml",
		Long: "Print the configuration resolved from defaults, the configuration file, " +
			"OFFLOAD_* environment variables and flags. The output is a valid --config-file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	registerConfigFlags(c)
	return c
}
