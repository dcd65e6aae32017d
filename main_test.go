package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jadenpxrk/codecat/internal/config"
	"github.com/jadenpxrk/codecat/internal/report"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(viper.New(), &out, &errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func sourceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "dep"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.c"), []byte("int main;\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "util.py"), []byte("pass\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep", "x.c"), []byte("x"), 0644))
	return root
}

func TestDefaultOutputName(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	assert.Equal(t, "codecat_20240309070501.txt", defaultOutputName(now))
}

func TestRootCommandWritesOutputFile(t *testing.T) {
	root := sourceTree(t)
	out := filepath.Join(t.TempDir(), "all.txt")

	stdout, _, err := execute(t, root, "-o", out, "--exts", "c")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN FILE: "+filepath.Join(root, "src", "main.c"))
	assert.NotContains(t, string(data), "util.py")
	assert.NotContains(t, string(data), "node_modules")

	assert.Contains(t, stdout, "Done.\n")
	assert.Contains(t, stdout, " Files written : 1\n")
	assert.Contains(t, stdout, " Output path   : "+out+"\n")
}

func TestRootCommandStdoutKeepsSummaryOnStderr(t *testing.T) {
	root := sourceTree(t)

	stdout, stderr, err := execute(t, "--root", root, "-o", "-", "--exts", ".py", "--summary-format", "yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "BEGIN FILE: "+filepath.Join(root, "src", "util.py"))
	assert.NotContains(t, stdout, "files_written")

	var summary report.Summary
	require.NoError(t, yaml.Unmarshal([]byte(stderr), &summary))
	assert.Equal(t, uint64(1), summary.FilesWritten)
	assert.Equal(t, uint64(len(stdout)), summary.BytesTracked)
}

func TestRootCommandLanguagePreset(t *testing.T) {
	root := sourceTree(t)

	stdout, _, err := execute(t, root, "-o", "-", "--exts", "", "--lang", "python")
	require.NoError(t, err)

	assert.Contains(t, stdout, "util.py")
	assert.NotContains(t, stdout, "main.c")
}

func TestRootCommandConfigFile(t *testing.T) {
	root := sourceTree(t)
	cfgPath := filepath.Join(t.TempDir(), "codecat.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("exts = [\".py\"]\nexclude_dirs = [\"src\"]\n"), 0644))

	stdout, _, err := execute(t, root, "-o", "-", "--config", cfgPath)
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestRootCommandErrors(t *testing.T) {
	root := sourceTree(t)

	_, _, err := execute(t, root, "-o", "-", "--summary-format", "xml")
	assert.ErrorIs(t, err, config.ErrConfig)

	_, _, err = execute(t, filepath.Join(root, "missing"), "-o", "-")
	require.Error(t, err)

	_, _, err = execute(t, root, "extra-arg")
	require.Error(t, err)
}

func TestReportFatal(t *testing.T) {
	var buf bytes.Buffer
	reportFatal(&buf, fmt.Errorf("%w: unsupported summary format", config.ErrConfig))

	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] \[ERROR\] configuration error: unsupported summary format\n$`, buf.String())
}
