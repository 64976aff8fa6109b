// Package rundir reads completed run directories: their immediate entries and
// the metadata sidecar written by the upstream processing job.
package rundir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/justapithecus/reprox/types"
)

// Dir is a snapshot of a run directory's immediate entries.
// Entries are read once at Open; later changes on disk are not observed.
type Dir struct {
	path    string
	entries []os.DirEntry
}

// Open lists the immediate children of path.
// Listing errors are returned as-is; callers decide how to classify them.
func Open(path string) (*Dir, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list run directory %s: %w", path, err)
	}
	return &Dir{path: path, entries: entries}, nil
}

// Path returns the directory path as given to Open.
func (d *Dir) Path() string { return d.path }

// Base returns the directory's base name.
func (d *Dir) Base() string { return filepath.Base(filepath.Clean(d.path)) }

// EntryCount returns the number of immediate children, metadata included.
func (d *Dir) EntryCount() int { return len(d.entries) }

// MetadataName returns the name of the first entry whose name contains
// "metadata", or "" when there is none. Entries are in name order.
func (d *Dir) MetadataName() string {
	for _, e := range d.entries {
		if types.IsMetadataName(e.Name()) {
			return e.Name()
		}
	}
	return ""
}

// DataNames returns the names of all entries that are not the metadata sidecar.
func (d *Dir) DataNames() []string {
	metaName := d.MetadataName()
	names := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		if e.Name() == metaName {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

// Metadata reads and parses the metadata sidecar.
// Returns nil, nil when the directory has no metadata entry.
// Read and parse failures are returned as errors.
func (d *Dir) Metadata() (*types.RunMetadata, error) {
	name := d.MetadataName()
	if name == "" {
		return nil, nil
	}

	full := filepath.Join(d.path, name)
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", full, err)
	}

	md, err := types.ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", full, err)
	}
	return md, nil
}

// OpenMetadata opens path and returns its parsed metadata sidecar, or nil
// when no entry name contains "metadata".
func OpenMetadata(path string) (*types.RunMetadata, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	return d.Metadata()
}
