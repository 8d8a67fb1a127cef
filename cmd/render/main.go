// Package main отрисовывает график z-score аномалий в файл и завершается
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"zscore-chart/internal/analytics"
	"zscore-chart/internal/dataset"
	"zscore-chart/internal/models"
	"zscore-chart/internal/render"
)

func main() {
	var (
		formatName  = flag.String("format", "svg", "output format: svg or png")
		out         = flag.String("out", "", "output file (default stdout)")
		datasetPath = flag.String("dataset", "", "dataset file (.json, .yaml); built-in sample when empty")
		threshold   = flag.Float64("threshold", analytics.AlertThreshold, "alert threshold for |z|")
		width       = flag.Int("width", 1000, "chart width in pixels")
		height      = flag.Int("height", 500, "chart height in pixels")
		title       = flag.String("title", "", "chart title")
		noBridge    = flag.Bool("no-bridge", false, "do not join alert segments to the next point")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	opts := render.Options{
		Title:  *title,
		Width:  *width,
		Height: *height,
		Bridge: !*noBridge,
	}
	if err := run(*formatName, *out, *datasetPath, *threshold, opts, logger); err != nil {
		logger.Error("render failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(formatName, out, datasetPath string, threshold float64, opts render.Options, logger *zap.Logger) error {
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}

	var points []models.DataPoint
	if datasetPath == "" {
		points = dataset.Sample()
	} else if points, err = dataset.Load(datasetPath); err != nil {
		return err
	}

	analysis, err := analytics.NewAnalyzer(threshold).Analyze(points)
	if err != nil {
		return err
	}
	for _, fa := range analysis.Fields {
		logger.Info("field analyzed",
			zap.String("field", string(fa.Field)),
			zap.Int("segments", len(fa.Segments)),
			zap.Int("alert_points", fa.AlertPoints()),
		)
	}

	spec := render.BuildChart(analysis, render.DefaultPalette(), opts)

	var buf bytes.Buffer
	if err := render.NewRenderer().Render(&buf, spec, format); err != nil {
		return err
	}

	if out == "" {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("chart written", zap.String("format", string(format)), zap.Int("layers", len(spec.Layers)))
	return nil
}
