// Package lineage computes the lineage hashes embedded in run directory
// names and provides the reference context used by deep validation.
//
// A data type's lineage is the plugin, version and options of the data
// type itself plus, transitively, of everything it depends on. The hash
// is the SHA-1 of the canonical JSON encoding of that lineage, base32
// encoded, lower-cased and truncated to HashLength characters.
package lineage

import (
	"crypto/sha1"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// HashLength is the number of characters kept from the encoded digest.
const HashLength = 10

var (
	// ErrUnknownDataType is returned for data types absent from the registry.
	ErrUnknownDataType = errors.New("unknown data type")
	// ErrDependencyCycle is returned when depends_on edges form a cycle.
	ErrDependencyCycle = errors.New("dependency cycle")
)

// DataType describes how one data type is produced.
type DataType struct {
	Plugin    string         `yaml:"plugin" json:"plugin"`
	Version   string         `yaml:"version" json:"version"`
	Options   map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
	DependsOn []string       `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// Config is the registry definition, usually loaded from YAML.
type Config struct {
	// DataTypes maps data type names to their producers.
	DataTypes map[string]DataType `yaml:"data_types"`
	// Pinned overrides the computed hash for specific data types.
	Pinned map[string]string `yaml:"pinned,omitempty"`
}

// Registry resolves lineage hashes for data types.
// It is immutable after construction.
type Registry struct {
	types  map[string]DataType
	pinned map[string]string
}

// NewRegistry validates cfg and builds a registry.
// Every dependency must be registered and the graph must be acyclic.
func NewRegistry(cfg Config) (*Registry, error) {
	r := &Registry{
		types:  make(map[string]DataType, len(cfg.DataTypes)),
		pinned: make(map[string]string, len(cfg.Pinned)),
	}
	for name, dt := range cfg.DataTypes {
		if name == "" || strings.Contains(name, "-") {
			return nil, fmt.Errorf("invalid data type name %q", name)
		}
		if dt.Plugin == "" {
			return nil, fmt.Errorf("data type %s: plugin is required", name)
		}
		r.types[name] = dt
	}
	for name, hash := range cfg.Pinned {
		if hash == "" || strings.Contains(hash, "-") {
			return nil, fmt.Errorf("invalid pinned hash %q for %s", hash, name)
		}
		r.pinned[name] = hash
	}

	for _, name := range r.DataTypes() {
		if _, err := r.Lineage(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadRegistry reads a registry definition from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lineage file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse lineage file: %w", err)
	}
	return NewRegistry(cfg)
}

// DataTypes returns the registered names, sorted.
func (r *Registry) DataTypes() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lineage returns the lineage of dataType: an entry for the data type and
// for each transitive dependency.
func (r *Registry) Lineage(dataType string) (map[string]DataType, error) {
	out := make(map[string]DataType)
	if err := r.collect(dataType, out, map[string]bool{}); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Registry) collect(name string, out map[string]DataType, visiting map[string]bool) error {
	if visiting[name] {
		return fmt.Errorf("%w through %s", ErrDependencyCycle, name)
	}
	if _, done := out[name]; done {
		return nil
	}
	dt, ok := r.types[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDataType, name)
	}

	visiting[name] = true
	for _, dep := range dt.DependsOn {
		if err := r.collect(dep, out, visiting); err != nil {
			return err
		}
	}
	delete(visiting, name)

	// Dependencies are captured by their own entries.
	out[name] = DataType{Plugin: dt.Plugin, Version: dt.Version, Options: dt.Options}
	return nil
}

// Hash returns the lineage hash of dataType. Pinned hashes take precedence.
func (r *Registry) Hash(dataType string) (string, error) {
	if h, ok := r.pinned[dataType]; ok {
		return h, nil
	}
	lin, err := r.Lineage(dataType)
	if err != nil {
		return "", err
	}
	return HashLineage(lin)
}

// HashLineage hashes any JSON-encodable lineage description.
// encoding/json sorts map keys, so equal lineages hash equally.
func HashLineage(lineage any) (string, error) {
	data, err := json.Marshal(lineage)
	if err != nil {
		return "", fmt.Errorf("encode lineage: %w", err)
	}
	sum := sha1.Sum(data)
	enc := strings.ToLower(base32.StdEncoding.EncodeToString(sum[:]))
	return enc[:HashLength], nil
}
