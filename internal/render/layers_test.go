package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zscore-chart/internal/analytics"
	"zscore-chart/internal/dataset"
	"zscore-chart/internal/models"
)

func sampleAnalysis(t *testing.T) models.Analysis {
	t.Helper()
	analysis, err := analytics.NewAnalyzer(analytics.AlertThreshold).Analyze(dataset.Sample())
	require.NoError(t, err)
	return analysis
}

func TestBuildLayers_OneLayerPerSegment(t *testing.T) {
	uv, ok := sampleAnalysis(t).Field(models.FieldUV)
	require.True(t, ok)

	layers := BuildLayers(models.FieldUV, uv.Segments, "#82ca9d", "#ff0000", LayerOptions{})
	require.Len(t, layers, len(uv.Segments))

	keys := []string{"uv-0-alert", "uv-1-normal", "uv-2-alert", "uv-3-normal", "uv-4-alert", "uv-5-normal"}
	for i, l := range layers {
		assert.Equal(t, keys[i], l.Key)
		assert.Equal(t, uv.Segments[i].Classification, l.Classification)
		if l.Classification == models.Alert {
			assert.Equal(t, "#ff0000", l.Color)
		} else {
			assert.Equal(t, "#82ca9d", l.Color)
		}
	}

	// Без мостов точки слоев в точности повторяют исходный ряд
	var indexes []int
	var values []float64
	for _, l := range layers {
		for _, p := range l.Points {
			indexes = append(indexes, p.Index)
			values = append(values, p.Value)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, indexes)
	assert.Equal(t, models.FieldUV.Values(dataset.Sample()), values)
}

func TestBuildLayers_Bridge(t *testing.T) {
	pv, ok := sampleAnalysis(t).Field(models.FieldPV)
	require.True(t, ok)

	layers := BuildLayers(models.FieldPV, pv.Segments, "#8884d8", "#ff0000", LayerOptions{Bridge: true})
	require.Len(t, layers, 3)

	// normal [0] без моста, alert [1,2] + мост к 3, последний слой без моста
	assert.Equal(t, []int{0}, pointIndexes(layers[0]))
	assert.Equal(t, []int{1, 2, 3}, pointIndexes(layers[1]))
	assert.Equal(t, []int{3, 4, 5, 6}, pointIndexes(layers[2]))
	assert.Equal(t, 9800.0, layers[1].Points[1].Value)
	assert.Equal(t, "Page D", layers[1].Points[2].Name)

	// Сегменты не изменяются при построении мостов
	assert.Len(t, pv.Segments[0].Points, 1)
}

func TestBuildLayers_BridgeOnlyFromAlert(t *testing.T) {
	uv, ok := sampleAnalysis(t).Field(models.FieldUV)
	require.True(t, ok)

	layers := BuildLayers(models.FieldUV, uv.Segments, "#82ca9d", "#ff0000", LayerOptions{Bridge: true})
	require.Len(t, layers, 6)

	// alert, normal, alert, normal, alert, normal
	expected := [][]int{{0, 1}, {1}, {2, 3}, {3}, {4, 5}, {5, 6}}
	for i, l := range layers {
		assert.Equal(t, expected[i], pointIndexes(l), "layer %s", l.Key)
	}
}

func TestBuildLayers_Empty(t *testing.T) {
	layers := BuildLayers(models.FieldUV, nil, "#82ca9d", "#ff0000", LayerOptions{Bridge: true})
	assert.Empty(t, layers)
}

func TestBuildChart(t *testing.T) {
	spec := BuildChart(sampleAnalysis(t), DefaultPalette(), Options{Title: "demo", Bridge: true})

	assert.Equal(t, 1000, spec.Width)
	assert.Equal(t, 500, spec.Height)
	assert.Equal(t, "demo", spec.Title)
	assert.Equal(t, []string{"Page A", "Page B", "Page C", "Page D", "Page E", "Page F", "Page G"}, spec.Labels)
	// 3 слоя pv + 6 слоев uv
	require.Len(t, spec.Layers, 9)
	assert.Equal(t, models.FieldPV, spec.Layers[0].Field)
	assert.Equal(t, "#8884d8", spec.Layers[0].Color)
	assert.Equal(t, models.FieldUV, spec.Layers[8].Field)
	assert.Equal(t, "#82ca9d", spec.Layers[8].Color)
}

func TestPalette_NormalColorFallback(t *testing.T) {
	p := Palette{Alert: "#f00"}
	assert.Equal(t, "#8884d8", p.NormalColor(models.FieldUV))
	assert.Equal(t, "#82ca9d", DefaultPalette().NormalColor(models.FieldUV))
}

func pointIndexes(l models.Layer) []int {
	out := make([]int, len(l.Points))
	for i, p := range l.Points {
		out[i] = p.Index
	}
	return out
}
