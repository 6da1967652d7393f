package cli

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultDatabase is the SQLite path used when neither flag nor config
// names one.
const DefaultDatabase = "allergycheck.db"

// DefaultConfigFile is loaded from the working directory when --config is
// not given. A missing default file is not an error.
const DefaultConfigFile = "allergycheck.yaml"

// Config is the YAML config file shape.
type Config struct {
	Database string `yaml:"database"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveDatabase picks the database path: --db flag, then config file,
// then DefaultDatabase.
func resolveDatabase(opts *RootOptions) (string, error) {
	if opts.Database != "" {
		return opts.Database, nil
	}

	path := opts.Config
	required := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return DefaultDatabase, nil
		}
		return "", WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.Database != "" {
		return cfg.Database, nil
	}
	return DefaultDatabase, nil
}
