package types

import (
	"fmt"
	"strings"
)

// Kind classifies why a run directory failed validation.
// The set is closed; AllKinds lists every member in check order.
type Kind string

const (
	// KindTempFolder indicates the upstream job is still writing (path contains "_temp").
	KindTempFolder Kind = "is_temp_folder"
	// KindNoMetadata indicates no sidecar file with "metadata" in its name was found.
	KindNoMetadata Kind = "has_no_metadata"
	// KindException indicates the upstream job recorded an exception in the metadata.
	KindException Kind = "has_exception"
	// KindMissesChunks indicates the chunk file count disagrees with the metadata.
	KindMissesChunks Kind = "misses_chunks"
	// KindWrongFormat indicates the directory name is not <run>-<data_type>-<lineage_hash>.
	KindWrongFormat Kind = "is_wrong_format"
	// KindDifferentHash indicates the embedded lineage hash is not the expected one.
	KindDifferentHash Kind = "cannot_validate_different_hash"
	// KindLoadingError indicates the data failed to load end to end.
	KindLoadingError Kind = "loading_error"
)

// AllKinds returns every Kind in the order the validator checks for them.
func AllKinds() []Kind {
	return []Kind{
		KindTempFolder,
		KindNoMetadata,
		KindException,
		KindMissesChunks,
		KindWrongFormat,
		KindDifferentHash,
		KindLoadingError,
	}
}

// Valid reports whether k is a member of the closed Kind set.
func (k Kind) Valid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Retryable reports whether the condition may clear on its own.
// Only an in-flight upstream write is expected to resolve without intervention.
func (k Kind) Retryable() bool {
	return k == KindTempFolder
}

// Finding is the single most relevant validation failure for a run directory.
// A nil *Finding means the directory is valid.
type Finding struct {
	// Kind is the failure classification.
	Kind Kind `json:"kind" yaml:"kind"`
	// Detail is a human-readable explanation (may be empty).
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// NewFinding creates a finding with a formatted detail message.
func NewFinding(kind Kind, format string, args ...any) *Finding {
	return &Finding{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (f *Finding) String() string {
	if f == nil {
		return "ok"
	}
	if f.Detail == "" {
		return string(f.Kind)
	}
	return string(f.Kind) + ": " + f.Detail
}

// Depth selects how thoroughly a run directory is validated.
type Depth string

const (
	// DepthShallow inspects only the local filesystem and metadata.
	DepthShallow Depth = "shallow"
	// DepthDeep additionally checks the lineage hash and loads all data.
	DepthDeep Depth = "deep"
)

// ParseDepth parses a depth name (case-insensitive). Empty defaults to shallow.
func ParseDepth(s string) (Depth, error) {
	switch strings.ToLower(s) {
	case "", string(DepthShallow):
		return DepthShallow, nil
	case string(DepthDeep):
		return DepthDeep, nil
	default:
		return "", fmt.Errorf("invalid depth: %q (must be shallow or deep)", s)
	}
}
