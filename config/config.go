package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyStoreBackend    = "store.backend"
	KeyStoreCouchURL   = "store.couch_url"
	KeyStoreDatabase   = "store.database"
	KeyStoreSQLitePath = "store.sqlite_path"
	KeyImportMaxFiles  = "import.max_files"
)

type Config struct {
	Store  StoreConfig  `mapstructure:"store" validate:"required"`
	Import ImportConfig `mapstructure:"import"`
	Actor  ActorConfig  `mapstructure:"actor"`
}

type StoreConfig struct {
	Backend    string `mapstructure:"backend" validate:"required,oneof=couch sqlite"`
	CouchURL   string `mapstructure:"couch_url" validate:"omitempty,url"`
	Database   string `mapstructure:"database"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type ImportConfig struct {
	MaxFiles int `mapstructure:"max_files" validate:"omitempty,min=1,max=100"`
}

// ActorConfig identifies the operator running imports. When empty, imports
// fall back to the CSV-import sentinel identity.
type ActorConfig struct {
	ID     string `mapstructure:"id"`
	Nom    string `mapstructure:"nom"`
	Prenom string `mapstructure:"prenom"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# audiogest configuration
store:
  # Backend "sqlite" keeps everything in a local file; "couch" targets a
  # CouchDB server.
  backend: "sqlite"
  sqlite_path: "./audiogest.db"
  couch_url: "http://localhost:5984"
  database: "audiogest"

import:
  max_files: 10

# Operator identity stamped on imported records. Leave empty to use the
# CSV-import sentinel.
actor:
  id: ""
  nom: ""
  prenom: ""
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateStore(cfg.Store); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyStoreBackend, "sqlite")
	v.SetDefault(KeyStoreCouchURL, "http://localhost:5984")
	v.SetDefault(KeyStoreDatabase, "audiogest")
	v.SetDefault(KeyStoreSQLitePath, "./audiogest.db")
	v.SetDefault(KeyImportMaxFiles, 10)
}

func validateStore(store StoreConfig) error {
	switch strings.ToLower(strings.TrimSpace(store.Backend)) {
	case "couch":
		if strings.TrimSpace(store.CouchURL) == "" {
			return fmt.Errorf("validation failed: store.couch_url is required for the couch backend")
		}
		if strings.TrimSpace(store.Database) == "" {
			return fmt.Errorf("validation failed: store.database is required for the couch backend")
		}
	case "sqlite":
		if strings.TrimSpace(store.SQLitePath) == "" {
			return fmt.Errorf("validation failed: store.sqlite_path is required for the sqlite backend")
		}
	}
	return nil
}
