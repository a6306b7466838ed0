// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out, errout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errout)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	out, err := execute(t, "--n", "6", "--n", "4,5", "--n", "4", "--verify")
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "N=4 solutions=2 ")
	assert.Contains(t, string(lines[1]), "N=5 solutions=10 ")
	assert.Contains(t, string(lines[2]), "N=6 solutions=4 ")
	assert.Contains(t, string(lines[2]), "verified")
}

func TestCountFields(t *testing.T) {
	out, err := execute(t, "--n", "6", "--count", "fields", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "N=6 solutions=4 ")
	assert.Contains(t, out, "Fields:     6 (36 bits)")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ndd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nodesize: 64\nflat:\n  nodesize: 500\n"), 0o644))
	out, err := execute(t, "--n", "5", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "N=5 solutions=10 ")

	require.NoError(t, os.WriteFile(path, []byte("nodes: 64\n"), 0o644))
	_, err = execute(t, "--n", "5", "--config", path)
	assert.Error(t, err)
}

func TestBadFlags(t *testing.T) {
	var flagTests = [][]string{
		{"--count", "paths"},
		{"--n", "0"},
		{"--n", "x"},
		{"extra"},
		{"--config", "/nonexistent/ndd.yaml"},
	}
	for _, args := range flagTests {
		_, err := execute(t, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []int{4, 5, 8}, dedup([]int{8, 4, 5, 4, 8}))
	assert.Empty(t, dedup(nil))
}
