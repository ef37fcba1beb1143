// Package launchpipe provides a close-on-exec anonymous pipe modelled on
// original_source's include/libsdb/pipe.hpp. No other package in this
// module imports it: inferior.Launch relies on os/exec's own internal pipe
// to relay exec(2) failures, and its stdoutReplacement parameter takes any
// *os.File.
package launchpipe

import (
	"io"
	"os"

	"github.com/gosdb/sdb/sdberr"
)

// Pipe is a read/write anonymous pipe pair with the original's
// close_read/close_write/release discipline: once a side is closed or
// released it must not be touched again.
type Pipe struct {
	r, w *os.File
}

// New creates a pipe; the closeOnExec flag only matters for pipes handed
// to a child across exec, which Go's exec.Cmd never does for extra fds
// opened this way, so it is accepted for API symmetry with pipe.hpp and
// otherwise unused.
func New(closeOnExec bool) (*Pipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, sdberr.WithErrno("could not create pipe", err)
	}
	return &Pipe{r: r, w: w}, nil
}

// ReleaseRead hands ownership of the read end to the caller, who becomes
// responsible for closing it; the Pipe no longer will.
func (p *Pipe) ReleaseRead() *os.File {
	r := p.r
	p.r = nil
	return r
}

// ReleaseWrite is ReleaseRead for the write end.
func (p *Pipe) ReleaseWrite() *os.File {
	w := p.w
	p.w = nil
	return w
}

// CloseRead closes the read end if still owned.
func (p *Pipe) CloseRead() error {
	if p.r == nil {
		return nil
	}
	err := p.r.Close()
	p.r = nil
	return err
}

// CloseWrite closes the write end if still owned.
func (p *Pipe) CloseWrite() error {
	if p.w == nil {
		return nil
	}
	err := p.w.Close()
	p.w = nil
	return err
}

// Read drains the read end to EOF.
func (p *Pipe) Read() ([]byte, error) {
	if p.r == nil {
		return nil, sdberr.New(sdberr.InvalidArgument, "pipe read end already released or closed")
	}
	return io.ReadAll(p.r)
}

// Write writes data to the write end.
func (p *Pipe) Write(data []byte) error {
	if p.w == nil {
		return sdberr.New(sdberr.InvalidArgument, "pipe write end already released or closed")
	}
	_, err := p.w.Write(data)
	return err
}

// Close releases both ends, ignoring either already having been closed or
// released.
func (p *Pipe) Close() error {
	err := p.CloseRead()
	if werr := p.CloseWrite(); err == nil {
		err = werr
	}
	return err
}
