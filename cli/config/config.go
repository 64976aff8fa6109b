package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/justapithecus/reprox/lineage"
	"github.com/justapithecus/reprox/lode"
)

// Config represents a reprox.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	SourceRoot      string        `yaml:"source_root"`
	DestinationRoot string        `yaml:"destination_root"`
	Group           string        `yaml:"group"`
	Depth           string        `yaml:"depth"`
	Mode            string        `yaml:"mode"`
	LogLevel        string        `yaml:"log_level"`
	Lineage         LineageConfig `yaml:"lineage"`
	Ledger          LedgerConfig  `yaml:"ledger"`
	Adapter         AdapterConfig `yaml:"adapter"`
}

// LineageConfig defines the data type registry, either inline or in a
// separate file. Setting both is an error.
type LineageConfig struct {
	File      string                      `yaml:"file"`
	DataTypes map[string]lineage.DataType `yaml:"data_types"`
	Pinned    map[string]string           `yaml:"pinned,omitempty"`
}

// LedgerConfig holds promotion ledger storage settings.
type LedgerConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
	Backoff Duration          `yaml:"backoff,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ParseMode parses an octal permission string such as "775" or "0o775".
// Empty returns 0, which selects the promoter default.
func ParseMode(s string) (fs.FileMode, error) {
	if s == "" {
		return 0, nil
	}
	trimmed := s
	if len(trimmed) > 2 && (trimmed[:2] == "0o" || trimmed[:2] == "0O") {
		trimmed = trimmed[2:]
	}
	v, err := strconv.ParseUint(trimmed, 8, 32)
	if err != nil || v > 0o777 {
		return 0, fmt.Errorf("invalid mode %q: want octal permission bits", s)
	}
	return fs.FileMode(v), nil
}

// Registry builds the lineage registry. It returns nil when no data
// types are configured.
func (l LineageConfig) Registry() (*lineage.Registry, error) {
	inline := len(l.DataTypes) > 0 || len(l.Pinned) > 0
	switch {
	case l.File != "" && inline:
		return nil, errors.New("lineage: set either file or data_types, not both")
	case l.File != "":
		return lineage.LoadRegistry(l.File)
	case inline:
		return lineage.NewRegistry(lineage.Config{DataTypes: l.DataTypes, Pinned: l.Pinned})
	default:
		return nil, nil
	}
}

// Enabled reports whether a ledger location is configured.
func (l LedgerConfig) Enabled() bool {
	return l.Path != ""
}

// StoreConfig converts the ledger settings for the lode package.
func (l LedgerConfig) StoreConfig() lode.StoreConfig {
	return lode.StoreConfig{
		Backend:      l.Backend,
		Path:         l.Path,
		Region:       l.Region,
		Endpoint:     l.Endpoint,
		UsePathStyle: l.S3PathStyle,
	}
}
