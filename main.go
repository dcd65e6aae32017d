package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jadenpxrk/codecat/internal/config"
	"github.com/jadenpxrk/codecat/internal/logger"
	"github.com/jadenpxrk/codecat/internal/report"
	"github.com/jadenpxrk/codecat/internal/session"
	"github.com/jadenpxrk/codecat/internal/sink"
)

// version is the application version, set via ldflags.
var version = "dev"

// newRootCmd builds the codecat command around its own viper instance so a
// process (or a test) can run it more than once.
func newRootCmd(v *viper.Viper, stdout, stderr io.Writer) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "codecat [ROOT]",
		Short: "Concatenate the source files of a directory tree into one framed text file.",
		Long: `codecat walks ROOT (default: the current directory), picks the files whose
extension is on the allow-list and writes them one after another into a single
output, each wrapped in BEGIN FILE / END FILE markers. ROOT may also be a git
repository URL, which is cloned to a temporary directory first.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile, stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set(config.KeyRoot, args[0])
			}
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			if cfg.Output == "" {
				cfg.Output = defaultOutputName(time.Now())
			}
			return run(cmd.Context(), cfg, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/codecat/config.toml)")

	flags.StringP("root", "r", "", "Directory to scan (default: current directory)")
	flags.StringP("out", "o", "", `Output file; "-" for stdout, "clipboard:" for the clipboard (default: codecat_YYYYMMDDHHMMSS.txt)`)
	flags.StringSlice("exts", nil, "Allowed file extensions, comma-separated (default: built-in source list)")
	flags.StringSlice("exclude-dirs", nil, "Directory names to prune, comma-separated (default: .git,node_modules,...)")
	flags.Bool("follow-links", false, "Follow symbolic links")
	flags.Bool("include-hidden", false, "Include hidden files and directories")
	flags.Bool("gitignore", false, "Also skip paths matched by the root .gitignore")

	flags.Bool("tokens", false, "Count tokens of the emitted content")
	flags.String("tokenizer", "tiktoken", "Tokenizer to use: tiktoken or huggingface")
	flags.String("model", "", "Model name for the tokenizer (e.g. gpt-4o, bert-base-uncased)")
	flags.String("tokenizer-file", "", "Path to a local tokenizer.json (huggingface)")

	flags.StringSlice("lang", nil, "Add the extensions of these languages (e.g. go,python)")
	flags.String("lang-file", "", "Path to a languages.yml overriding the built-in table")

	flags.String("summary-format", config.SummaryText, "Summary format: text or yaml")
	flags.String("log-level", "info", "Log level: trace, debug, info, warn or error")

	config.SetDefaults(v)
	for key, flag := range map[string]string{
		config.KeyRoot:          "root",
		config.KeyOut:           "out",
		config.KeyExts:          "exts",
		config.KeyExcludeDirs:   "exclude-dirs",
		config.KeyFollowLinks:   "follow-links",
		config.KeyIncludeHidden: "include-hidden",
		config.KeyGitignore:     "gitignore",
		config.KeyTokens:        "tokens",
		config.KeyTokenizer:     "tokenizer",
		config.KeyModel:         "model",
		config.KeyTokenizerFile: "tokenizer-file",
		config.KeyLang:          "lang",
		config.KeyLangFile:      "lang-file",
		config.KeySummaryFormat: "summary-format",
		config.KeyLogLevel:      "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper, cfgFile string, stderr io.Writer) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "codecat"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}

	v.SetEnvPrefix("CODECAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("%w: reading config file: %v", config.ErrConfig, err)
	}
	if logger.ParseLevel(v.GetString(config.KeyLogLevel)) <= logger.LevelDebug {
		fmt.Fprintln(stderr, "Using config file:", v.ConfigFileUsed())
	}
	return nil
}

// defaultOutputName is the timestamped file written when no output is given.
func defaultOutputName(now time.Time) string {
	return "codecat_" + now.Format("20060102150405") + ".txt"
}

func run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	log := logger.New(stderr, logger.ParseLevel(cfg.LogLevel))

	summary, err := session.Execute(ctx, cfg, session.Env{Stdout: stdout, Logger: log})
	if err != nil {
		return err
	}

	// Keep the summary out of the concatenated stream.
	dst := stdout
	if cfg.Output == sink.Stdout {
		dst = stderr
	}
	return report.Write(dst, summary, cfg.SummaryFormat)
}

// reportFatal prints the error that ended the run.
func reportFatal(w io.Writer, err error) {
	logger.New(w, logger.LevelError).Errorf("%v", err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(viper.New(), os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		reportFatal(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
