package lineage

import (
	"errors"

	"github.com/justapithecus/reprox/lode"
	"github.com/justapithecus/reprox/validate"
)

// StoreOpener opens the storage root holding run directories.
type StoreOpener func(root string) (*lode.RunReader, error)

// Context is the reference deep validation compares against: lineage
// hashes from a Registry and record readers over Lode stores.
type Context struct {
	registry *Registry
	open     StoreOpener
}

// NewContext creates a Context. A nil opener reads local directories.
func NewContext(registry *Registry, open StoreOpener) (*Context, error) {
	if registry == nil {
		return nil, errors.New("lineage registry is required")
	}
	if open == nil {
		open = OpenFSReader
	}
	return &Context{registry: registry, open: open}, nil
}

// LineageHash returns the expected hash for dataType. Hashes do not vary by run.
func (c *Context) LineageHash(_, dataType string) (string, error) {
	return c.registry.Hash(dataType)
}

// OpenReader returns a fresh reader over root.
func (c *Context) OpenReader(root string) (validate.RecordReader, error) {
	r, err := c.open(root)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// OpenFSReader reads run directories under a local root.
func OpenFSReader(root string) (*lode.RunReader, error) {
	store, err := lode.OpenFSStore(root)
	if err != nil {
		return nil, err
	}
	return lode.NewRunReader(store), nil
}

var _ validate.Reference = (*Context)(nil)
