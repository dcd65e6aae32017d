// Package config builds the immutable run configuration from defaults, an
// optional config file, CODECAT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ErrConfig marks errors that prevent a run from starting.
var ErrConfig = errors.New("configuration error")

// Viper keys. Flags bind to the same names.
const (
	KeyRoot          = "root"
	KeyOut           = "out"
	KeyExts          = "exts"
	KeyExcludeDirs   = "exclude_dirs"
	KeyFollowLinks   = "follow_links"
	KeyIncludeHidden = "include_hidden"
	KeyGitignore     = "gitignore"
	KeyTokens        = "tokens"
	KeyTokenizer     = "tokenizer"
	KeyModel         = "model"
	KeyTokenizerFile = "tokenizer_file"
	KeyLang          = "lang"
	KeyLangFile      = "lang_file"
	KeySummaryFormat = "summary_format"
	KeyLogLevel      = "log_level"
)

// DefaultExtensions is the built-in allow-list of source and text extensions.
var DefaultExtensions = []string{
	".c", ".h", ".cpp", ".hpp", ".cc", ".hh", ".cxx", ".hxx",
	".rs", ".go", ".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".kt", ".swift", ".m", ".mm", ".cs",
	".php", ".rb", ".sh", ".bash", ".zsh", ".fish", ".ps1", ".psm1", ".r", ".jl", ".sql",
	".yaml", ".yml", ".toml", ".ini", ".cfg", ".conf", ".md", ".txt", ".cmake", ".make", ".mk",
	".gradle", ".sbt", ".pl", ".pm", ".scala", ".dart", ".lua", ".zig", ".hs", ".erl", ".ex", ".exs", ".elm", ".hx",
}

// DefaultExcludeDirs are directory names pruned from every scan.
var DefaultExcludeDirs = []string{
	".git", "node_modules", ".cache", ".idea", ".vscode", "target", "build", "dist", ".venv", "venv",
}

// Summary formats.
const (
	SummaryText = "text"
	SummaryYAML = "yaml"
)

// TokenConfig selects the optional token counter.
type TokenConfig struct {
	Enabled   bool
	Tokenizer string // tiktoken or huggingface
	Model     string
	File      string
}

// Config is one run's configuration. Build it with FromViper or Normalize and
// do not modify it afterwards.
type Config struct {
	Root          string
	Output        string
	FollowLinks   bool
	IncludeHidden bool
	Extensions    []string // lower-case, dot-prefixed, unique
	ExcludeDirs   []string
	UseGitignore  bool
	Tokens        TokenConfig
	SummaryFormat string
	LogLevel      string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRoot, "")
	v.SetDefault(KeyOut, "")
	v.SetDefault(KeyExts, DefaultExtensions)
	v.SetDefault(KeyExcludeDirs, DefaultExcludeDirs)
	v.SetDefault(KeyFollowLinks, false)
	v.SetDefault(KeyIncludeHidden, false)
	v.SetDefault(KeyGitignore, false)
	v.SetDefault(KeyTokens, false)
	v.SetDefault(KeyTokenizer, "tiktoken")
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyTokenizerFile, "")
	v.SetDefault(KeyLang, []string{})
	v.SetDefault(KeyLangFile, "")
	v.SetDefault(KeySummaryFormat, SummaryText)
	v.SetDefault(KeyLogLevel, "info")
}

// FromViper resolves the final configuration from v.
// An empty root resolves to the working directory.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Root:          v.GetString(KeyRoot),
		Output:        v.GetString(KeyOut),
		FollowLinks:   v.GetBool(KeyFollowLinks),
		IncludeHidden: v.GetBool(KeyIncludeHidden),
		Extensions:    ListValue(v.Get(KeyExts)),
		ExcludeDirs:   ListValue(v.Get(KeyExcludeDirs)),
		UseGitignore:  v.GetBool(KeyGitignore),
		Tokens: TokenConfig{
			Enabled:   v.GetBool(KeyTokens),
			Tokenizer: v.GetString(KeyTokenizer),
			Model:     v.GetString(KeyModel),
			File:      v.GetString(KeyTokenizerFile),
		},
		SummaryFormat: v.GetString(KeySummaryFormat),
		LogLevel:      v.GetString(KeyLogLevel),
	}

	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("%w: cannot resolve working directory: %v", ErrConfig, err)
		}
		cfg.Root = wd
	}

	if langs := ListValue(v.Get(KeyLang)); len(langs) > 0 {
		data, err := LoadLanguages(v.GetString(KeyLangFile))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		exts, err := data.ExtensionsFor(langs)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		cfg.Extensions = append(cfg.Extensions, exts...)
	}

	return Normalize(cfg)
}

// Normalize canonicalizes extension and directory lists and validates enums.
func Normalize(cfg Config) (Config, error) {
	cfg.Extensions = NormalizeExtensions(cfg.Extensions)
	cfg.ExcludeDirs = normalizeNames(cfg.ExcludeDirs)

	if cfg.SummaryFormat == "" {
		cfg.SummaryFormat = SummaryText
	}
	cfg.SummaryFormat = strings.ToLower(cfg.SummaryFormat)
	if cfg.SummaryFormat != SummaryText && cfg.SummaryFormat != SummaryYAML {
		return Config{}, fmt.Errorf("%w: unsupported summary format %q (use text or yaml)", ErrConfig, cfg.SummaryFormat)
	}

	if cfg.Tokens.Tokenizer == "" {
		cfg.Tokens.Tokenizer = "tiktoken"
	}
	return cfg, nil
}

// NormalizeExtensions lower-cases, dot-prefixes and de-duplicates extension
// tokens, dropping empty ones. Order of first appearance is kept.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ListValue turns a config value into a string list. Strings are split on
// commas, so "--exts .c,.h" and exts = [".c", ".h"] mean the same thing.
func ListValue(raw any) []string {
	switch val := raw.(type) {
	case nil:
		return nil
	case string:
		return splitComma(val)
	case []string:
		var out []string
		for _, s := range val {
			out = append(out, splitComma(s)...)
		}
		return out
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, splitComma(fmt.Sprint(item))...)
		}
		return out
	default:
		return splitComma(fmt.Sprint(val))
	}
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
