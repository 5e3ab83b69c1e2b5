package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the audiogest configuration file.",
	Long: `Create and validate the audiogest configuration file.

The configuration stores:
- store.backend (couch or sqlite) and its connection values
- import.max_files
- the operator identity stamped on imported records`,
	Example: `
  # Create default config in $HOME/.audiogest.yaml
  audiogest config create

  # Validate the active config
  audiogest config check
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
