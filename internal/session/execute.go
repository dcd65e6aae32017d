package session

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/jadenpxrk/codecat/internal/config"
	"github.com/jadenpxrk/codecat/internal/gitsrc"
	"github.com/jadenpxrk/codecat/internal/logger"
	"github.com/jadenpxrk/codecat/internal/report"
	"github.com/jadenpxrk/codecat/internal/sink"
	"github.com/jadenpxrk/codecat/internal/tokens"
)

// Env is the process environment a run executes in.
type Env struct {
	Stdout io.Writer
	Logger *logger.Logger
	Fs     afero.Fs
	// NewCounter builds the token counter; tokens.New when nil.
	NewCounter func(tokens.Options) (tokens.Counter, error)
}

// Execute performs a complete run for cfg: it resolves a git URL root,
// opens the output destination, runs the Session, closes the destination and
// builds the summary.
func Execute(ctx context.Context, cfg config.Config, env Env) (report.Summary, error) {
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Logger == nil {
		env.Logger = logger.Discard()
	}
	if env.NewCounter == nil {
		env.NewCounter = tokens.New
	}
	log := env.Logger

	if gitsrc.IsGitURL(cfg.Root) {
		log.Infof("cloning %s", cfg.Root)
		var progress io.Writer
		if log.Enabled(logger.LevelDebug) {
			progress = os.Stderr
		}
		dir, cleanup, err := gitsrc.Clone(ctx, cfg.Root, progress)
		if err != nil {
			return report.Summary{}, fmt.Errorf("%w: %v", ErrTraversal, err)
		}
		defer cleanup()
		cfg.Root = dir
	}

	var counter tokens.Counter
	if cfg.Tokens.Enabled {
		c, err := env.NewCounter(tokens.Options{
			Tokenizer: cfg.Tokens.Tokenizer,
			Model:     cfg.Tokens.Model,
			File:      cfg.Tokens.File,
			Logger:    log,
		})
		if err != nil {
			return report.Summary{}, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		defer c.Close()
		counter = c
	}

	out, err := sink.Open(cfg.Output, env.Stdout)
	if err != nil {
		return report.Summary{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	var exclude []os.FileInfo
	if info := out.Info(); info != nil {
		exclude = append(exclude, info)
	}

	log.Debugf("scanning %s into %s", cfg.Root, out.Path)
	res, runErr := New(cfg, out, Options{
		Fs:      env.Fs,
		Logger:  log,
		Tokens:  counter,
		Exclude: exclude,
	}).Run(ctx)

	closeErr := out.Close()
	if runErr != nil {
		return report.Summary{}, runErr
	}
	if closeErr != nil {
		return report.Summary{}, fmt.Errorf("%w: %s: %v", ErrWrite, out.Path, closeErr)
	}

	summary := report.Summary{
		FilesWritten: res.Stats.FilesWritten,
		OutputPath:   out.Path,
		BytesTracked: res.Stats.BytesWritten,
		Warnings:     len(res.Warnings),
	}
	if size, ok := out.Size(); ok {
		summary.OutputSize = size
		summary.SizeFromSink = true
		if uint64(size) != res.Stats.BytesWritten {
			log.Warnf("output size %d differs from tracked byte count %d", size, res.Stats.BytesWritten)
		}
	} else {
		summary.OutputSize = int64(res.Stats.BytesWritten)
	}
	if res.Tokens != nil {
		total := res.Tokens.Total()
		summary.Tokens = &total
		summary.TokenFiles = res.Tokens.Files()
		for _, ft := range summary.TokenFiles {
			log.Debugf("%s: %d tokens", ft.Path, ft.Tokens)
		}
	}
	return summary, nil
}
