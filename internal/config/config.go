package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config is the ambient configuration for a ddbfile invocation, loaded
// from a YAML file alongside a database path.
type Config struct {
	DataDir  string       `yaml:"data_directory"`
	PageSize uint16       `yaml:"page_size"`
	LogLevel logrus.Level `yaml:"log_level"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		DataDir:  ".",
		PageSize: 4096,
		LogLevel: logrus.InfoLevel,
	}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so a partial file only overrides what it specifies.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return cfg, nil
}
