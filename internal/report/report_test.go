package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jadenpxrk/codecat/internal/config"
	"github.com/jadenpxrk/codecat/internal/tokens"
)

func TestWriteTextFileSink(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Summary{
		FilesWritten: 3,
		OutputPath:   "codecat_20240102030405.txt",
		OutputSize:   1234,
		SizeFromSink: true,
		BytesTracked: 1234,
	}, config.SummaryText)
	require.NoError(t, err)

	assert.Equal(t, "Done.\n"+
		" Files written : 3\n"+
		" Output path   : codecat_20240102030405.txt\n"+
		" Output size   : 1234 bytes\n", buf.String())
}

func TestWriteTextUnmeasuredSink(t *testing.T) {
	tokens := 42
	var buf bytes.Buffer
	err := Write(&buf, Summary{
		FilesWritten: 1,
		OutputPath:   "<stdout>",
		BytesTracked: 99,
		Warnings:     2,
		Tokens:       &tokens,
	}, config.SummaryText)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), " Bytes tracked : 99 bytes\n")
	assert.NotContains(t, buf.String(), "Output size")
	assert.Contains(t, buf.String(), " Tokens        : 42\n")
	assert.Contains(t, buf.String(), " Warnings      : 2\n")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	in := Summary{FilesWritten: 2, OutputPath: "out.txt", OutputSize: 10, SizeFromSink: true, BytesTracked: 10}
	require.NoError(t, Write(&buf, in, config.SummaryYAML))

	var out Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, in, out)
	assert.NotContains(t, buf.String(), "tokens:")
}

func TestWriteYAMLTokenFiles(t *testing.T) {
	total := 7
	in := Summary{
		FilesWritten: 2,
		OutputPath:   "<stdout>",
		BytesTracked: 120,
		Tokens:       &total,
		TokenFiles:   []tokens.FileTokens{{Path: "a.go", Tokens: 5}, {Path: "b.go", Tokens: 2}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in, config.SummaryYAML))
	assert.Contains(t, buf.String(), "token_files:")

	var out Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, in, out)

	buf.Reset()
	require.NoError(t, Write(&buf, in, config.SummaryText))
	assert.NotContains(t, buf.String(), "a.go")
}
