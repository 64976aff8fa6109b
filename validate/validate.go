// Package validate decides whether a processed run directory is complete
// and loadable.
//
// Checks run in a fixed order and the first failure wins:
//
//  1. temp folder (path contains "_temp"; no I/O)
//  2. metadata sidecar present
//  3. no exception recorded in metadata
//  4. chunk file count matches non-empty chunks in metadata
//  5. directory name parses as <run>-<data_type>-<lineage_hash>
//  6. deep only: lineage hash matches the reference
//  7. deep only: every record loads through the reference reader
//
// Validation failures are returned as *types.Finding values. Errors are
// reserved for conditions that prevent a verdict (unreadable directory,
// corrupt metadata, canceled context).
package validate

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/justapithecus/reprox/log"
	"github.com/justapithecus/reprox/rundir"
	"github.com/justapithecus/reprox/types"
)

// TempMarker marks directories an upstream job is still writing.
const TempMarker = "_temp"

// ErrNoReference is returned when deep validation is requested without a Reference.
var ErrNoReference = errors.New("deep validation requires a reference context")

// RecordReader yields the records of one run directory.
// The sequence ends at the first error.
type RecordReader interface {
	Records(ctx context.Context, key types.RunKey) iter.Seq2[map[string]any, error]
}

// Reference is the processing context deep validation compares against.
type Reference interface {
	// LineageHash returns the hash the current configuration produces for (run, dataType).
	LineageHash(run, dataType string) (string, error)
	// OpenReader returns a fresh read-only reader over a storage root.
	OpenReader(root string) (RecordReader, error)
}

// Config configures a Validator.
type Config struct {
	// Depth is the default depth for FindError.
	Depth types.Depth
	// Reference is required for deep validation.
	Reference Reference
	// Logger receives per-check debug entries (optional).
	Logger *log.Logger
}

// Validate checks that the configuration can serve its default depth.
func (c Config) Validate() error {
	switch c.Depth {
	case types.DepthShallow, "":
	case types.DepthDeep:
		if c.Reference == nil {
			return ErrNoReference
		}
	default:
		return fmt.Errorf("invalid depth: %q", c.Depth)
	}
	return nil
}

// Validator applies the ordered checks to run directories.
// It never modifies the filesystem.
type Validator struct {
	depth  types.Depth
	ref    Reference
	logger *log.Logger
}

// New creates a Validator.
func New(cfg Config) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	depth := cfg.Depth
	if depth == "" {
		depth = types.DepthShallow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Validator{depth: depth, ref: cfg.Reference, logger: logger}, nil
}

// Depth returns the default validation depth.
func (v *Validator) Depth() types.Depth {
	return v.depth
}

// FindError validates path at the configured depth.
// Returns nil, nil when the directory is valid.
func (v *Validator) FindError(ctx context.Context, path string) (*types.Finding, error) {
	return v.FindErrorAt(ctx, path, v.depth)
}

// FindErrorAt validates path at the given depth.
func (v *Validator) FindErrorAt(ctx context.Context, path string, depth types.Depth) (*types.Finding, error) {
	if depth == types.DepthDeep && v.ref == nil {
		return nil, ErrNoReference
	}

	finding, err := v.check(ctx, path, depth)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"path": path, "depth": string(depth)}
	if finding != nil {
		fields["kind"] = string(finding.Kind)
		fields["detail"] = finding.Detail
	}
	v.logger.Debug("validated run directory", fields)
	return finding, nil
}

func (v *Validator) check(ctx context.Context, path string, depth types.Depth) (*types.Finding, error) {
	if strings.Contains(path, TempMarker) {
		return types.NewFinding(types.KindTempFolder, "path %s is still being written", path), nil
	}

	dir, err := rundir.Open(path)
	if err != nil {
		return nil, err
	}
	md, err := dir.Metadata()
	if err != nil {
		return nil, err
	}
	if md == nil {
		return types.NewFinding(types.KindNoMetadata, "no file containing %q in %s", types.MetadataMarker, dir.Base()), nil
	}

	if md.HasException {
		return &types.Finding{Kind: types.KindException, Detail: md.Exception}, nil
	}

	// Every entry except the metadata sidecar counts as a chunk file.
	found, declared := dir.EntryCount()-1, md.CountNonEmpty()
	if found != declared {
		return types.NewFinding(types.KindMissesChunks, "found %d chunk files, metadata declares %d non-empty chunks", found, declared), nil
	}

	key, err := types.ParseRunKey(dir.Base())
	if err != nil {
		return types.NewFinding(types.KindWrongFormat, "%v", err), nil
	}

	if depth != types.DepthDeep {
		return nil, nil
	}

	expected, err := v.ref.LineageHash(key.Run, key.DataType)
	if err != nil {
		return types.NewFinding(types.KindDifferentHash, "cannot compute lineage hash for %s: %v", key.DataType, err), nil
	}
	if expected != key.LineageHash {
		return types.NewFinding(types.KindDifferentHash, "directory has %s, expected %s", key.LineageHash, expected), nil
	}

	return v.load(ctx, filepath.Dir(filepath.Clean(path)), key)
}

// load reads every record of key through a fresh reader over root.
func (v *Validator) load(ctx context.Context, root string, key types.RunKey) (*types.Finding, error) {
	reader, err := v.ref.OpenReader(root)
	if err != nil {
		return types.NewFinding(types.KindLoadingError, "%v", err), nil
	}

	var n int64
	for _, err := range reader.Records(ctx, key) {
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return types.NewFinding(types.KindLoadingError, "%v", err), nil
		}
		n++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.logger.Debug("loaded run directory", map[string]any{"run_key": key.String(), "records": n})
	return nil, nil
}
