package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"audiogest/config"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audiogest",
	Short: "Analyze, import, and export règlement and stock CSV files.",
	Long: `
audiogest is the back-office import pipeline for a hearing-aid retail
operation. It analyzes delimited exports (règlements, stock-produit),
normalizes and deduplicates their rows, and commits the result into a
document store (CouchDB or a local SQLite file).
`,
	Example: `
  # Create configuration file
  audiogest config create

  # Dry-run: analyze payment files without persisting anything
  audiogest analyze -i reglements_mars.csv -i reglements_avril.csv --domain reglement

  # Import stock files into the configured store
  audiogest import -i stock_A01.csv --domain stock

  # Export persisted payments to Excel
  audiogest export --domain reglement --format excel --output ./reglements.xlsx
`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.audiogest.yaml, then ./.audiogest.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "logLevel", "info", "Log level: debug|info|warn|error")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".audiogest")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: audiogest config create")
	}
}

func initLogger() {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
