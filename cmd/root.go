package cmd

import (
	"os"

	"github.com/josephlewis42/pipesh/commands"
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/josephlewis42/pipesh/core/vos"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	commandLine string

	// exitCode is the status the process exits with once cobra returns.
	exitCode int
)

func loadConfig(fsys afero.Fs) (*config.Configuration, error) {
	return config.LoadOrDefault(fsys, cfgPath)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pipesh",
	Short: "A small interactive shell",
	Long: `An interactive shell with pipelines, a handful of builtins, tab completion
and a history that can be saved to and loaded from plain text files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fsys := afero.NewOsFs()
		cfg, err := loadConfig(fsys)
		if err != nil {
			return err
		}

		log, err := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
		if err != nil {
			return err
		}

		shell, err := commands.NewShell(cfg, vos.NewOSEnv(), fsys, log)
		if err != nil {
			return err
		}
		shell.Init()

		if cmd.Flags().Changed("command") {
			exitCode = shell.RunCommand(cmd.Context(), commandLine)
			return nil
		}

		exitCode = shell.RunInteractive()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single line and exit")
}
