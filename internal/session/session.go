// Package session runs one codecat invocation: it walks the configured root,
// frames every admitted file into the output and reports the counters.
//
// Everything happens on the calling goroutine. Each file is opened, copied
// and closed before the walk moves on, so the output never interleaves.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/jadenpxrk/codecat/internal/config"
	"github.com/jadenpxrk/codecat/internal/emit"
	"github.com/jadenpxrk/codecat/internal/logger"
	"github.com/jadenpxrk/codecat/internal/match"
	"github.com/jadenpxrk/codecat/internal/tokens"
	"github.com/jadenpxrk/codecat/internal/walk"
)

// Error kinds. Every fatal error returned by this package wraps one of them.
var (
	ErrConfig    = config.ErrConfig
	ErrTraversal = walk.ErrTraversal
	ErrWrite     = emit.ErrWrite
)

// Options carry a Session's collaborators. Zero values get defaults.
type Options struct {
	Fs     afero.Fs
	Logger *logger.Logger
	// Tokens, when set, counts tokens of every emitted file.
	Tokens tokens.Counter
	// Exclude lists files never admitted, typically the output file.
	Exclude []os.FileInfo
}

// Result is the outcome of Run.
type Result struct {
	Stats    emit.Stats
	Warnings []string
	Tokens   *tokens.Tally
}

// Session binds one configuration to one output stream.
type Session struct {
	cfg  config.Config
	out  io.Writer
	opts Options
}

// New creates a Session writing to out.
func New(cfg config.Config, out io.Writer, opts Options) *Session {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Session{cfg: cfg, out: out, opts: opts}
}

// Run walks the tree and writes every admitted file. Per-file open and read
// failures become warnings; traversal and write failures stop the run and
// are returned together with the counters reached so far.
func (s *Session) Run(ctx context.Context) (Result, error) {
	var res Result
	log := s.opts.Logger

	matcher, err := s.matcher()
	if err != nil {
		return res, err
	}

	writer := emit.NewWriter(s.out)
	if s.opts.Tokens != nil {
		res.Tokens = tokens.NewTally(s.opts.Tokens)
		writer.SetObserver(res.Tokens)
	}

	walker := walk.New(s.opts.Fs, s.cfg.Root, matcher, walk.Options{
		FollowLinks: s.cfg.FollowLinks,
		Exclude:     s.opts.Exclude,
		Logger:      log,
	})

	for walker.Next() {
		if err := ctx.Err(); err != nil {
			res.Stats = writer.Stats()
			return res, err
		}

		e := walker.Entry()
		if log.Enabled(logger.LevelTrace) {
			log.Tracef("%s %s %s %s", e.Verdict, e.Kind, e.Path, e.Reason)
		}
		if e.Kind != walk.KindFile || e.Verdict != walk.Admitted {
			continue
		}

		if err := s.emitFile(writer, e.Path, &res); err != nil {
			res.Stats = writer.Stats()
			return res, err
		}
	}

	res.Stats = writer.Stats()
	if err := walker.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Session) emitFile(writer *emit.Writer, path string, res *Result) error {
	f, err := s.opts.Fs.Open(path)
	if err != nil {
		s.warn(res, "cannot open %s: %v", path, err)
		return nil
	}
	defer f.Close()

	err = writer.EmitFile(path, f)
	var readErr *emit.ReadError
	if errors.As(err, &readErr) {
		s.warn(res, "read of %s stopped early: %v", path, readErr.Err)
		return nil
	}
	return err
}

func (s *Session) warn(res *Result, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	res.Warnings = append(res.Warnings, msg)
	s.opts.Logger.Warnf("%s", msg)
}

// matcher builds the run's Matcher, adding the root .gitignore when enabled.
func (s *Session) matcher() (*match.Matcher, error) {
	m := match.New(match.Rules{
		Extensions:    s.cfg.Extensions,
		ExcludeDirs:   s.cfg.ExcludeDirs,
		IncludeHidden: s.cfg.IncludeHidden,
	})
	if !s.cfg.UseGitignore {
		return m, nil
	}

	// A file root has no .gitignore of its own. A missing root is left for
	// the walker to report.
	if info, err := s.opts.Fs.Stat(s.cfg.Root); err != nil || !info.IsDir() {
		return m, nil
	}

	path := filepath.Join(s.cfg.Root, ".gitignore")
	f, err := s.opts.Fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s.opts.Logger.Debugf("no .gitignore at %s", path)
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", ErrConfig, path, err)
	}
	defer f.Close()

	return m.WithGitignore(s.cfg.Root, f), nil
}
