package lode

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path"
	"sort"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/reprox/iox"
	"github.com/justapithecus/reprox/types"
)

// Read failures specific to run directory contents.
var (
	// ErrNoMetadata is returned when a run directory has no metadata sidecar.
	ErrNoMetadata = errors.New("run directory has no metadata")
	// ErrMissingChunk is returned when a declared chunk file is absent.
	ErrMissingChunk = errors.New("declared chunk file missing")
	// ErrRecordCount is returned when a chunk decodes to a different record count than declared.
	ErrRecordCount = errors.New("chunk record count mismatch")
)

// RunReader reads the records of run directories stored under a Lode store root.
type RunReader struct {
	store lode.Store
}

// NewRunReader creates a reader over store.
func NewRunReader(store lode.Store) *RunReader {
	return &RunReader{store: store}
}

// Records returns a lazy sequence of every record of the run directory named
// by key. Chunks are read in metadata order; each decoded chunk must hold
// exactly the declared number of records. The first error ends the sequence.
func (r *RunReader) Records(ctx context.Context, key types.RunKey) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		dir := key.DirName()

		names, err := r.list(ctx, dir)
		if err != nil {
			yield(nil, err)
			return
		}

		md, err := r.metadata(ctx, dir, names)
		if err != nil {
			yield(nil, err)
			return
		}

		files, err := chunkFiles(md, names)
		if err != nil {
			yield(nil, fmt.Errorf("%s: %w", dir, err))
			return
		}

		for i, f := range files {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			stopped, err := r.readChunk(ctx, path.Join(dir, f.name), f.n, yield)
			if err != nil {
				yield(nil, fmt.Errorf("chunk %d: %w", i, err))
				return
			}
			if stopped {
				return
			}
		}
	}
}

// Count drains Records and returns the number of records read.
func (r *RunReader) Count(ctx context.Context, key types.RunKey) (int64, error) {
	var n int64
	for _, err := range r.Records(ctx, key) {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// list returns the sorted base names of the entries under dir.
func (r *RunReader) list(ctx context.Context, dir string) ([]string, error) {
	keys, err := r.store.List(ctx, dir+"/")
	if err != nil {
		return nil, WrapListError(err, dir)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, path.Base(k))
	}
	sort.Strings(names)
	return names, nil
}

func (r *RunReader) metadata(ctx context.Context, dir string, names []string) (*types.RunMetadata, error) {
	var metaName string
	for _, n := range names {
		if types.IsMetadataName(n) {
			metaName = n
			break
		}
	}
	if metaName == "" {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoMetadata)
	}

	key := path.Join(dir, metaName)
	rc, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, WrapReadError(err, key)
	}
	data, err := iox.ReadAllClose(rc)
	if err != nil {
		return nil, WrapReadError(err, key)
	}
	md, err := types.ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return md, nil
}

// readChunk decodes one chunk file and forwards its records to yield.
// Reports whether the consumer stopped early.
func (r *RunReader) readChunk(ctx context.Context, key string, want int64, yield func(Record, error) bool) (bool, error) {
	rc, err := r.store.Get(ctx, key)
	if err != nil {
		return false, WrapReadError(err, key)
	}
	defer iox.DiscardClose(rc)

	stopped := false
	got, err := DecodeChunk(key, rc, func(rec Record) bool {
		if !yield(rec, nil) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}
	if !stopped && got != want {
		return false, fmt.Errorf("%w: %s decoded %d records, metadata declares %d", ErrRecordCount, key, got, want)
	}
	return stopped, nil
}

type chunkFile struct {
	name string
	n    int64
}

// chunkFiles resolves the file of every non-empty declared chunk.
// Chunks without a recorded filename are paired, in order, with the
// remaining data files sorted by name.
func chunkFiles(md *types.RunMetadata, names []string) ([]chunkFile, error) {
	present := make(map[string]bool, len(names))
	var data []string
	for _, n := range names {
		if types.IsMetadataName(n) {
			continue
		}
		present[n] = true
		data = append(data, n)
	}

	claimed := make(map[string]bool)
	for _, c := range md.Chunks {
		if c.N > 0 && c.Filename != "" {
			claimed[c.Filename] = true
		}
	}
	var unclaimed []string
	for _, n := range data {
		if !claimed[n] {
			unclaimed = append(unclaimed, n)
		}
	}

	var files []chunkFile
	for i, c := range md.Chunks {
		if c.N <= 0 {
			continue
		}
		name := c.Filename
		if name == "" {
			if len(unclaimed) == 0 {
				return nil, fmt.Errorf("%w: chunk %d has no file", ErrMissingChunk, i)
			}
			name, unclaimed = unclaimed[0], unclaimed[1:]
		}
		if !present[name] {
			return nil, fmt.Errorf("%w: %s", ErrMissingChunk, name)
		}
		files = append(files, chunkFile{name: name, n: c.N})
	}
	return files, nil
}
