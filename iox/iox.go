// Package iox holds small I/O helpers shared by storage readers,
// adapters and tests.
package iox

import "io"

// DiscardClose closes c and drops the error. For deferred closes of
// read-only handles where a close failure changes nothing:
//
//	defer iox.DiscardClose(rc)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts c for t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(srv))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// ReadAllClose reads rc to EOF and closes it. The read error wins over
// the close error.
func ReadAllClose(rc io.ReadCloser) ([]byte, error) {
	data, err := io.ReadAll(rc)
	cerr := rc.Close()
	if err != nil {
		return nil, err
	}
	return data, cerr
}
