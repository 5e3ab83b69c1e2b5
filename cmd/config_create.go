package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"audiogest/config"
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the example template.

If a configuration file is already in use, no new file is written.`,
	Example: `
  # Create default config at $HOME/.audiogest.yaml
  audiogest config create
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveDefaultConfig()
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the active configuration file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.ConfigFileUsed()
		if path == "" {
			return fmt.Errorf("no config file in use; create one with: audiogest config create")
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		if _, err := config.ValidateYAMLContent(content); err != nil {
			return fmt.Errorf("config file %s is invalid: %w", path, err)
		}
		fmt.Printf("Config file %s is valid.\n", path)
		return nil
	},
}

func saveDefaultConfig() error {
	configPath, err := resolveConfigCreatePath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file already exists at: %s\n", configPath)
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file %s: %w", configPath, err)
	}

	if err := os.WriteFile(configPath, []byte(config.ExampleYAML()), 0o644); err != nil {
		return fmt.Errorf("write config file %s: %w", configPath, err)
	}
	fmt.Printf("New config file created at: %s\n", configPath)
	return nil
}

// resolveConfigCreatePath picks the file to create: the explicit override,
// then the discovered active file, then $HOME/.audiogest.yaml.
func resolveConfigCreatePath(override, active string) (string, error) {
	if override != "" {
		return override, nil
	}
	if active != "" {
		return active, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".audiogest.yaml"), nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configCheckCmd)
}
