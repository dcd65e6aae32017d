// Package sink opens the destination the concatenated output is written to:
// a file, standard output, or the system clipboard.
package sink

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/gofrs/flock"
)

// Special destinations.
const (
	Stdout    = "-"
	Clipboard = "clipboard:"
)

// ErrLocked is returned when another run holds the output file.
var ErrLocked = errors.New("output is locked by another run")

// Kind of destination.
type Kind int

const (
	KindFile Kind = iota
	KindStdout
	KindClipboard
)

const bufferSize = 32 << 10

// Sink is a buffered output destination, exclusively owned by one run.
type Sink struct {
	Path string
	Kind Kind

	w      *bufio.Writer
	file   *os.File
	lock   *flock.Flock
	clip   *bytes.Buffer
	closed bool
}

// Open prepares dest for writing. Files are created or truncated and guarded
// by an advisory lock so two runs never interleave into the same output.
// stdout is used for the "-" destination.
func Open(dest string, stdout io.Writer) (*Sink, error) {
	switch dest {
	case "":
		return nil, errors.New("no output destination")
	case Stdout:
		return &Sink{Path: "<stdout>", Kind: KindStdout, w: bufio.NewWriterSize(stdout, bufferSize)}, nil
	case Clipboard:
		if clipboard.Unsupported {
			return nil, errors.New("clipboard is not supported on this system")
		}
		buf := &bytes.Buffer{}
		return &Sink{Path: "<clipboard>", Kind: KindClipboard, w: bufio.NewWriterSize(buf, bufferSize), clip: buf}, nil
	}

	// Truncate only once the lock is held, so a locked file keeps the other
	// run's output.
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open output %s: %w", dest, err)
	}

	lock := flock.New(dest)
	locked, err := lock.TryLock()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot lock output %s: %w", dest, err)
	}
	if !locked {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrLocked, dest)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		_ = lock.Close()
		return nil, fmt.Errorf("cannot truncate output %s: %w", dest, err)
	}

	return &Sink{
		Path: dest,
		Kind: KindFile,
		w:    bufio.NewWriterSize(f, bufferSize),
		file: f,
		lock: lock,
	}, nil
}

// Write buffers p. Errors from earlier flushes are sticky.
func (s *Sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Info describes the output file so the walker can skip it. It returns nil
// for non-file sinks.
func (s *Sink) Info() os.FileInfo {
	if s.file == nil {
		return nil
	}
	info, err := s.file.Stat()
	if err != nil {
		return nil
	}
	return info
}

// Close flushes buffered output and releases the destination. For the
// clipboard this is when the content is actually copied.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.w.Flush()

	switch s.Kind {
	case KindFile:
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
		if lerr := s.lock.Close(); err == nil && lerr != nil {
			err = fmt.Errorf("release lock: %w", lerr)
		}
	case KindClipboard:
		if err == nil {
			err = clipboard.WriteAll(s.clip.String())
		}
	}
	return err
}

// Size reports the size of the written output as the destination sees it.
// ok is false when the destination cannot be measured (stdout, clipboard) or
// the file cannot be stat'ed; callers then fall back to their own counter.
func (s *Sink) Size() (size int64, ok bool) {
	if s.Kind != KindFile {
		return 0, false
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}
