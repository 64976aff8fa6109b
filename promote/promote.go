// Package promote moves validated run directories into production storage.
package promote

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/justapithecus/reprox/log"
	"github.com/justapithecus/reprox/types"
)

// DefaultMode is applied to a run directory before it is moved.
const DefaultMode fs.FileMode = 0o775

// ErrDestinationExists is returned when the target directory is already present.
var ErrDestinationExists = errors.New("destination already exists")

// ExistsError reports a promotion refused because the destination exists.
type ExistsError struct {
	Source      string
	Destination string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("cannot promote %s: %s already exists", e.Source, e.Destination)
}

// Is reports ErrDestinationExists so callers can match with errors.Is.
func (e *ExistsError) Is(target error) bool {
	return target == ErrDestinationExists
}

// Finder validates a run directory. *validate.Validator implements it.
type Finder interface {
	FindError(ctx context.Context, path string) (*types.Finding, error)
}

// Config configures a Promoter.
type Config struct {
	// DestinationRoot receives promoted directories (required, must exist).
	DestinationRoot string
	// Group is the group name or numeric gid to assign. Empty keeps the current group.
	Group string
	// Mode is applied to the directory itself (default 0o775).
	Mode fs.FileMode
	// Validator decides whether a directory may be promoted (required).
	Validator Finder
	// Logger receives one entry per promotion (optional).
	Logger *log.Logger
}

// Promoter validates, re-owns and moves run directories.
type Promoter struct {
	dest      string
	gid       int
	mode      fs.FileMode
	validator Finder
	logger    *log.Logger
}

// New resolves the configured group and checks the destination root.
func New(cfg Config) (*Promoter, error) {
	if cfg.Validator == nil {
		return nil, errors.New("promoter requires a validator")
	}
	if cfg.DestinationRoot == "" {
		return nil, errors.New("destination root is required")
	}
	info, err := os.Stat(cfg.DestinationRoot)
	if err != nil {
		return nil, fmt.Errorf("destination root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("destination root %s is not a directory", cfg.DestinationRoot)
	}

	gid, err := LookupGID(cfg.Group)
	if err != nil {
		return nil, err
	}

	mode := cfg.Mode
	if mode == 0 {
		mode = DefaultMode
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	return &Promoter{
		dest:      cfg.DestinationRoot,
		gid:       gid,
		mode:      mode,
		validator: cfg.Validator,
		logger:    logger,
	}, nil
}

// LookupGID resolves a group name or numeric id. Empty returns -1,
// which leaves the group unchanged.
func LookupGID(group string) (int, error) {
	if group == "" {
		return -1, nil
	}
	if gid, err := strconv.Atoi(group); err == nil {
		if gid < 0 {
			return 0, fmt.Errorf("invalid group %q: gid must be >= 0", group)
		}
		return gid, nil
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, fmt.Errorf("resolve group %q: %w", group, err)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, fmt.Errorf("group %q has non-numeric gid %q", group, g.Gid)
	}
	return gid, nil
}

// DestinationFor returns where path would be promoted to.
func (p *Promoter) DestinationFor(path string) string {
	return filepath.Join(p.dest, filepath.Base(filepath.Clean(path)))
}

// MoveFolder promotes one run directory.
//
// A non-nil finding means validation failed; nothing was changed. An error
// matching ErrDestinationExists means the directory is valid but its
// destination is taken; nothing was changed either. Any other error is
// unexpected and may leave the source re-owned but unmoved.
func (p *Promoter) MoveFolder(ctx context.Context, path string) (*types.Finding, error) {
	finding, err := p.validator.FindError(ctx, path)
	if err != nil {
		return nil, err
	}
	if finding != nil {
		return finding, nil
	}

	dest := p.DestinationFor(path)
	if _, err := os.Lstat(dest); err == nil {
		return nil, &ExistsError{Source: path, Destination: dest}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("check destination %s: %w", dest, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.gid >= 0 {
		if err := os.Chown(path, -1, p.gid); err != nil {
			return nil, fmt.Errorf("change group of %s: %w", path, err)
		}
	}
	if err := os.Chmod(path, p.mode); err != nil {
		return nil, fmt.Errorf("change mode of %s: %w", path, err)
	}

	if err := p.move(path, dest); err != nil {
		return nil, err
	}

	p.logger.Info("promoted run directory", map[string]any{
		"source":      path,
		"destination": dest,
	})
	return nil, nil
}

// move renames src to dst, copying across filesystems when rename cannot.
// The cross-device path is not atomic.
func (p *Promoter) move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("move %s: %w", src, err)
	}

	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		_ = os.RemoveAll(dst)
		return fmt.Errorf("copy %s across devices: %w", src, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("change mode of %s: %w", dst, err)
	}
	if p.gid >= 0 {
		if err := os.Chown(dst, -1, p.gid); err != nil {
			return fmt.Errorf("change group of %s: %w", dst, err)
		}
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}
