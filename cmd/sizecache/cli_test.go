package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sizecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.Execute())
	return buf.String()
}

func TestConfigCommand(t *testing.T) {
	path := writeConfig(t, "cache:\n  max_size: 42\n  shards: 2\n")

	out := execute(t, "config", "--config", path)
	assert.Contains(t, out, "# source: "+path)
	assert.Contains(t, out, "max_size: 42")
	assert.Contains(t, out, "shards: 2")
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("hello"), 0o644))
	path := writeConfig(t, "cache:\n  max_size: 100\n  strict: true\n")

	out := execute(t, "scan", dir, "--config", path)
	assert.Contains(t, out, "pass 1: files=2 dirs=1 bytes=8 B hits=0 misses=3 hit-rate=0.00%")
	assert.Contains(t, out, "pass 2: files=2 dirs=1 bytes=8 B hits=3 misses=0 hit-rate=100.00%")
	assert.Contains(t, out, "cache: entries=3 size=3/100 units")
}

func TestBenchCommand(t *testing.T) {
	path := writeConfig(t, "cache:\n  max_size: 64\n  shards: 2\n  strict: true\n")

	out := execute(t, "bench", "--config", path,
		"--duration", "50ms", "--workers", "2", "--keys", "500",
		"--max-item-size", "4", "--seed", "7")
	assert.Contains(t, out, "max_size=64 shards=2 workers=2 keys=500")
	assert.Contains(t, out, "hit-rate=")
}

func TestBenchCommandRejectsBadFlags(t *testing.T) {
	path := writeConfig(t, "cache:\n  max_size: 64\n")

	RootCmd.SetArgs([]string{"bench", "--config", path, "--reads", "150"})
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	assert.Error(t, RootCmd.Execute())
}
