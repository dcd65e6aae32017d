// Package report renders the end-of-run summary.
package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jadenpxrk/codecat/internal/config"
	"github.com/jadenpxrk/codecat/internal/tokens"
)

// Summary is what a finished run reports to the user. OutputSize is the
// size the destination reports; SizeFromSink is false when it could not be
// measured and BytesTracked is the figure to trust. TokenFiles is only
// rendered in YAML.
type Summary struct {
	FilesWritten uint64 `yaml:"files_written"`
	OutputPath   string `yaml:"output_path"`
	OutputSize   int64  `yaml:"output_size"`
	SizeFromSink bool   `yaml:"size_from_sink"`
	BytesTracked uint64 `yaml:"bytes_tracked"`
	Warnings     int    `yaml:"warnings"`
	Tokens       *int   `yaml:"tokens,omitempty"`

	TokenFiles []tokens.FileTokens `yaml:"token_files,omitempty"`
}

// Write renders s in the given format (config.SummaryText or SummaryYAML).
func Write(w io.Writer, s Summary, format string) error {
	switch format {
	case config.SummaryYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		return enc.Close()
	default:
		return writeText(w, s)
	}
}

func writeText(w io.Writer, s Summary) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Done.\n")
	printf(" Files written : %d\n", s.FilesWritten)
	printf(" Output path   : %s\n", s.OutputPath)
	if s.SizeFromSink {
		printf(" Output size   : %d bytes\n", s.OutputSize)
	} else {
		printf(" Bytes tracked : %d bytes\n", s.BytesTracked)
	}
	if s.Tokens != nil {
		printf(" Tokens        : %d\n", *s.Tokens)
	}
	if s.Warnings > 0 {
		printf(" Warnings      : %d\n", s.Warnings)
	}
	return err
}
