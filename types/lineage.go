// Package types defines core domain types for reprox: run directory keys,
// validation findings and the metadata sidecar schema.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"strings"
)

// RunKeySeparator separates the segments of a run directory name.
const RunKeySeparator = "-"

// ErrMalformedRunKey is returned when a directory name is not <run>-<data_type>-<lineage_hash>.
var ErrMalformedRunKey = errors.New("malformed run key")

// RunKey identifies one (run, data type) output produced under a specific lineage.
type RunKey struct {
	// Run is the upstream run identifier.
	Run string
	// DataType is the kind of output the run produced.
	DataType string
	// LineageHash fingerprints the processing logic and parameters.
	LineageHash string
}

// ParseRunKey parses a directory base name of the form <run>-<data_type>-<lineage_hash>.
// The name must contain exactly two separators; segments may be empty.
func ParseRunKey(name string) (RunKey, error) {
	parts := strings.Split(name, RunKeySeparator)
	if len(parts) != 3 {
		return RunKey{}, fmt.Errorf("%w: %q has %d segments, want 3", ErrMalformedRunKey, name, len(parts))
	}
	return RunKey{Run: parts[0], DataType: parts[1], LineageHash: parts[2]}, nil
}

// DirName renders the key back into its directory base name.
func (k RunKey) DirName() string {
	return k.Run + RunKeySeparator + k.DataType + RunKeySeparator + k.LineageHash
}

// String implements fmt.Stringer.
func (k RunKey) String() string {
	return k.DirName()
}
