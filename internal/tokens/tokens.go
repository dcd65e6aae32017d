// Package tokens counts LLM tokens in the emitted content, using tiktoken or
// a HuggingFace tokenizer.
package tokens

import (
	"bytes"
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/jadenpxrk/codecat/internal/logger"
)

// Counter counts tokens in a piece of text.
type Counter interface {
	CountTokens(text string) int
	Close()
}

const (
	defaultTiktokenModel = "gpt-4o"
	defaultHFModel       = "gpt2"
)

// Options select a tokenizer.
type Options struct {
	Tokenizer string // tiktoken or huggingface
	Model     string
	File      string // local tokenizer.json, huggingface only
	Logger    *logger.Logger
}

// New returns the counter described by opts.
func New(opts Options) (Counter, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	switch strings.ToLower(opts.Tokenizer) {
	case "", "tiktoken":
		return loadTiktoken(opts)
	case "huggingface", "hf":
		return loadHuggingFace(opts)
	default:
		return nil, fmt.Errorf("unsupported tokenizer type: %s. Use 'tiktoken' or 'huggingface'", opts.Tokenizer)
	}
}

type tiktokenCounter struct {
	ttk *tiktoken.Tiktoken
}

func (c *tiktokenCounter) CountTokens(text string) int {
	return len(c.ttk.EncodeOrdinary(text))
}

func (c *tiktokenCounter) Close() {}

func loadTiktoken(opts Options) (Counter, error) {
	model := opts.Model
	if model == "" {
		model = defaultTiktokenModel
	}

	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		opts.Logger.Warnf("tiktoken model %q not found, falling back to %q: %v", model, defaultTiktokenModel, err)
		tke, err = tiktoken.EncodingForModel(defaultTiktokenModel)
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoding for default model %q: %w", defaultTiktokenModel, err)
		}
	}
	return &tiktokenCounter{ttk: tke}, nil
}

type hfCounter struct {
	htk    *hf.Tokenizer
	logger *logger.Logger
}

func (c *hfCounter) CountTokens(text string) int {
	en, err := c.htk.EncodeSingle(text)
	if err != nil {
		c.logger.Warnf("huggingface tokenizer failed to encode text: %v", err)
		return 0
	}
	return len(en.Tokens)
}

func (c *hfCounter) Close() {}

func loadHuggingFace(opts Options) (Counter, error) {
	path := opts.File
	if path == "" {
		model := opts.Model
		if model == "" {
			model = defaultHFModel
		}
		opts.Logger.Infof("loading huggingface tokenizer for model %s (this may download files)", model)

		cached, err := hf.CachedPath(model, "tokenizer.json")
		if err != nil {
			return nil, fmt.Errorf("failed to get cache path for model %s: %w", model, err)
		}
		path = cached
	}

	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from %s: %w", path, err)
	}
	return &hfCounter{htk: tk, logger: opts.Logger}, nil
}

// FileTokens is the token count of one emitted file.
type FileTokens struct {
	Path   string `yaml:"path"`
	Tokens int    `yaml:"tokens"`
}

// Tally observes the writer's content stream and counts tokens per file.
// A file's bytes are held only until its END marker.
type Tally struct {
	counter Counter
	buf     bytes.Buffer
	files   []FileTokens
	total   int
}

// NewTally wraps counter.
func NewTally(counter Counter) *Tally {
	return &Tally{counter: counter}
}

func (t *Tally) BeginFile(string) { t.buf.Reset() }

func (t *Tally) Observe(p []byte) { t.buf.Write(p) }

func (t *Tally) EndFile(path string) {
	n := 0
	if t.buf.Len() > 0 {
		n = t.counter.CountTokens(t.buf.String())
	}
	t.files = append(t.files, FileTokens{Path: path, Tokens: n})
	t.total += n
	t.buf.Reset()
}

// Total is the sum over all files so far.
func (t *Tally) Total() int { return t.total }

// Files lists per-file counts in emission order.
func (t *Tally) Files() []FileTokens { return t.files }
