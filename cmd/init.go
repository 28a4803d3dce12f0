package cmd

import (
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// initCmd writes the default configuration
var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Write the default configuration to DIR, or the current directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		log, err := logger.New(cmd.ErrOrStderr(), "info")
		if err != nil {
			return err
		}

		path, err := config.Initialize(afero.NewOsFs(), dir)
		if err != nil {
			return err
		}
		log.Info("wrote configuration", "path", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
