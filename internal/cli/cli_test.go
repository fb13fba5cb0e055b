package cli

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	opts, users, err := Parse([]string{"alice", "bob"}, io.Discard, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, users)
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, 10, opts.Workers)
	assert.Equal(t, "sites.json", opts.CatalogPath)
	assert.Equal(t, "results", opts.ResultsDir)
	assert.Empty(t, opts.Sites)
	assert.Empty(t, opts.Warnings)
	assert.False(t, opts.Quiet)
	assert.False(t, opts.NoSave)
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()

	opts, users, err := Parse([]string{
		"-s", "GitHub, Instagram",
		"-c", "social",
		"-a",
		"-t", "3",
		"-w", "25",
		"-p", "socks5h://127.0.0.1:9050",
		"--json-only",
		"--markdown",
		"--catalog", "custom.yaml",
		"--results", "out",
		"--no-color",
		"-v",
		"--log-file", "x.log",
		"alice",
	}, io.Discard, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, users)
	assert.Equal(t, []string{"GitHub", "Instagram"}, opts.Sites)
	assert.Equal(t, "social", opts.Category)
	assert.True(t, opts.PrintAll)
	assert.Equal(t, 3*time.Second, opts.Timeout)
	assert.Equal(t, 25, opts.Workers)
	assert.Equal(t, "socks5h://127.0.0.1:9050", opts.Proxy)
	assert.True(t, opts.JSONOnly)
	assert.True(t, opts.Markdown)
	assert.Equal(t, "custom.yaml", opts.CatalogPath)
	assert.Equal(t, "out", opts.ResultsDir)
	assert.True(t, opts.NoColor)
	assert.True(t, opts.Verbose)
	assert.Equal(t, "x.log", opts.LogFile)
}

func TestParse_InvalidNumbersFallBack(t *testing.T) {
	t.Parallel()

	opts, _, err := Parse([]string{"--timeout", "0", "--workers", "-2", "alice"}, io.Discard, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, 10, opts.Workers)
	assert.Len(t, opts.Warnings, 2)
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	_, _, err := Parse([]string{"--help"}, &stdout, io.Discard)
	require.ErrorIs(t, err, ErrHelp)
	assert.Contains(t, stdout.String(), "--self-test")
}

func TestParse_UsageErrors(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"unknown flag":        {"--bogus", "alice"},
		"txt and json only":   {"--txt-only", "--json-only", "alice"},
		"quiet and print all": {"-q", "-a", "alice"},
		"bad proxy scheme":    {"--proxy", "ftp://host:21", "alice"},
		"proxy without host":  {"--proxy", "http://", "alice"},
		"non numeric timeout": {"--timeout", "soon", "alice"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, _, err := Parse(args, io.Discard, io.Discard)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrHelp)
		})
	}
}

func TestParse_NoUsernames(t *testing.T) {
	t.Parallel()

	opts, users, err := Parse([]string{"--self-test"}, io.Discard, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.SelfTest)
	assert.Empty(t, users)
}
