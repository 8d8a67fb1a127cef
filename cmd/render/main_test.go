package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"zscore-chart/internal/render"
)

func TestRun_WritesChart(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chart.png")

	err := run("png", out, "", 1.0, render.DefaultOptions(), zap.NewNop())
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestRun_Dataset(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "points.json")
	require.NoError(t, os.WriteFile(in, []byte(`[{"name":"a","uv":1,"pv":2},{"name":"b","uv":3,"pv":4}]`), 0o600))
	out := filepath.Join(dir, "chart.svg")

	require.NoError(t, run("svg", out, in, 1.0, render.DefaultOptions(), zap.NewNop()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, run("gif", filepath.Join(dir, "x"), "", 1.0, render.DefaultOptions(), zap.NewNop()))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0o600))
	assert.Error(t, run("svg", filepath.Join(dir, "y"), empty, 1.0, render.DefaultOptions(), zap.NewNop()))
}
