// internal/cli/root.go
//
// Command tree for the crossword backend:
//   serve  — migrate, seed questions, run the shell API
//   import — bulk-import questions from a JSON file
//   report — write the player roster PDF

package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "crossword",
		Short: "Crossword quiz game backend",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newImportCmd(&configPath))
	cmd.AddCommand(newReportCmd(&configPath))
	return cmd
}
