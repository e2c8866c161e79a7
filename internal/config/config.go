package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"commentgraph/internal/detector"
	"commentgraph/internal/parser"
)

// DefaultPath is where the CLI looks for its configuration file.
const DefaultPath = "configs/config.yml"

// Config holds application configuration
type Config struct {
	Input struct {
		Directory   string `yaml:"directory"`
		MaxVideos   int    `yaml:"max_videos"`
		Extension   string `yaml:"extension"`
		LikesPolicy string `yaml:"likes_policy"` // drop, zero or abort
	} `yaml:"input"`

	Detector detector.Thresholds `yaml:"detector"`

	Output struct {
		Directory   string `yaml:"directory"`
		FlaggedOnly bool   `yaml:"flagged_only"`
		DumpRecords bool   `yaml:"dump_records"`
	} `yaml:"output"`

	Database DatabaseConfig `yaml:"database"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`
}

// DatabaseConfig selects the run history store.
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // "sqlite" or "postgres"
	Path    string `yaml:"path"` // SQLite path or PostgreSQL URL
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.Database.Enabled = true
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from YAML file. A missing file is not an
// error: the defaults are returned instead.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	config.Database.Enabled = true

	file, err := os.Open(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		config.applyDefaults()
		return config, nil
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Input.Directory == "" {
		c.Input.Directory = "./dumps"
	}
	if c.Input.MaxVideos == 0 {
		c.Input.MaxVideos = 1000
	}
	if c.Input.Extension == "" {
		c.Input.Extension = ".txt"
	}
	if c.Input.LikesPolicy == "" {
		c.Input.LikesPolicy = string(parser.PolicyDrop)
	}

	if c.Detector.Bot == 0 {
		c.Detector.Bot = detector.DefaultBotThreshold
	}
	if c.Detector.Spam == 0 {
		c.Detector.Spam = detector.DefaultSpamThreshold
	}
	if c.Detector.Comparison == "" {
		c.Detector.Comparison = detector.GreaterThan
	}

	if c.Output.Directory == "" {
		c.Output.Directory = "./out"
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/commentgraph.db"
	}
	c.Database.Path = os.ExpandEnv(c.Database.Path)

	if c.Server.Port == "" {
		c.Server.Port = "8003"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks value ranges and enum values.
func (c *Config) Validate() error {
	if c.Input.MaxVideos < 1 {
		return fmt.Errorf("input.max_videos must be >= 1, got %d", c.Input.MaxVideos)
	}
	if _, err := parser.ParsePolicy(c.Input.LikesPolicy); err != nil {
		return fmt.Errorf("input.likes_policy: %w", err)
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.type must be sqlite or postgres, got %q", c.Database.Type)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
