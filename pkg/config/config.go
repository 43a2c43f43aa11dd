package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the default path to the config file.
const DefaultConfigPath = "./config/midikit.yml"

// Version is the version of midikit, it's overridden at build time with
// -ldflags "-X github.com/nspcc-dev/midikit/pkg/config.Version=...".
var Version = "dev"

// Config is the top level struct representing midikit configuration.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration" toml:"ApplicationConfiguration"`
	ShellConfiguration       ShellConfiguration       `yaml:"ShellConfiguration" toml:"ShellConfiguration"`
}

// Default returns configuration used when no file is given.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel: "info",
		},
		ShellConfiguration: ShellConfiguration{
			Prompt:    DefaultPrompt,
			PrintLogo: true,
		},
	}
}

// LoadFile loads config from the provided path. Files with the .toml
// extension are decoded as TOML, everything else is treated as YAML. Values
// missing from the file keep their defaults, unknown fields are an error.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Default()
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		err = decodeTOML(configData, &config)
	} else {
		err = decodeYAML(configData, &config)
	}
	if err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return fmt.Errorf("failed to unmarshal config TOML: unknown field %s", undecoded[0])
	}
	return nil
}

// Validate checks the whole configuration for consistency.
func (c Config) Validate() error {
	if err := c.ApplicationConfiguration.Validate(); err != nil {
		return fmt.Errorf("ApplicationConfiguration: %w", err)
	}
	if err := c.ShellConfiguration.Validate(); err != nil {
		return fmt.Errorf("ShellConfiguration: %w", err)
	}
	return nil
}
