// Package emit writes admitted files into the output stream, each framed by a
// BEGIN/END marker pair, and keeps the run's byte and file counters.
package emit

import (
	"errors"
	"fmt"
	"io"
)

// ErrWrite marks a failed write to the output sink. Once it happens the
// output holds a partial frame and the run must stop.
var ErrWrite = errors.New("output write error")

// Marker text. The END marker is preceded by a newline so it always starts
// on its own line, and followed by a blank line before the next BEGIN.
const (
	BeginPrefix = "==================== BEGIN FILE: "
	BeginSuffix = " ====================\n"
	EndMarker   = "\n===================== END FILE =====================\n\n"
)

// ChunkSize is the copy buffer size. It only affects throughput.
const ChunkSize = 32 << 10

// Stats are the run counters. BytesWritten includes marker text and so
// equals the length of everything written to the sink.
type Stats struct {
	FilesWritten uint64
	BytesWritten uint64
}

// ContentObserver sees each file's bytes as they are copied. Used for token
// counting; it must not fail the run.
type ContentObserver interface {
	BeginFile(path string)
	Observe(p []byte)
	EndFile(path string)
}

// ReadError reports a source that failed mid-copy. The frame was closed and
// counted; the output is still well formed.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Writer frames files into a single output stream.
type Writer struct {
	out      io.Writer
	stats    Stats
	buf      []byte
	observer ContentObserver
	err      error
}

// NewWriter returns a Writer that owns out for the rest of the run.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, buf: make([]byte, ChunkSize)}
}

// SetObserver installs an observer for file contents. Pass nil to remove it.
func (w *Writer) SetObserver(obs ContentObserver) {
	w.observer = obs
}

// Stats returns the counters so far.
func (w *Writer) Stats() Stats {
	return w.stats
}

// EmitFile writes the BEGIN marker for path, copies src verbatim and writes
// the END marker. A write failure returns an error wrapping ErrWrite and every
// later call fails the same way. A read failure still closes the frame,
// counts the file and returns a *ReadError.
func (w *Writer) EmitFile(path string, src io.Reader) error {
	if w.err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, w.err)
	}

	w.write([]byte(BeginPrefix + path + BeginSuffix))
	if w.observer != nil && w.err == nil {
		w.observer.BeginFile(path)
	}
	readErr := w.copy(src)
	w.write([]byte(EndMarker))
	if w.err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, w.err)
	}

	if w.observer != nil {
		w.observer.EndFile(path)
	}
	w.stats.FilesWritten++

	if readErr != nil {
		return &ReadError{Path: path, Err: readErr}
	}
	return nil
}

// copy moves src to the sink in ChunkSize pieces and returns the read error
// that ended it, if any. Write failures land in w.err.
func (w *Writer) copy(src io.Reader) error {
	for w.err == nil {
		n, err := src.Read(w.buf)
		if n > 0 {
			if w.observer != nil {
				w.observer.Observe(w.buf[:n])
			}
			w.write(w.buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// write is a no-op once a write has failed.
func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.out.Write(p)
	w.stats.BytesWritten += uint64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	w.err = err
}
