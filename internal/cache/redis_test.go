package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"zscore-chart/internal/models"
)

// newTestCache подключается к Redis из REDIS_TEST_ADDR, иначе тест пропускается
func newTestCache(t *testing.T) *RedisCache {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewRedisCache(ctx, addr, "", 15)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	if err := c.FlushDB(ctx); err != nil {
		t.Fatalf("FlushDB: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestKeys(t *testing.T) {
	if got := ChartKey("abc", "svg"); got != "chart:abc:svg" {
		t.Errorf("Expected chart:abc:svg, got %s", got)
	}
	if got := AnalysisKey("abc"); got != "analysis:abc" {
		t.Errorf("Expected analysis:abc, got %s", got)
	}
}

func TestRedisCache_Chart(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.GetChart(ctx, "fp", "svg"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Expected ErrMiss, got %v", err)
	}

	if err := c.CacheChart(ctx, "fp", "svg", []byte("<svg/>")); err != nil {
		t.Fatalf("CacheChart: %v", err)
	}
	data, err := c.GetChart(ctx, "fp", "svg")
	if err != nil {
		t.Fatalf("GetChart: %v", err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("Expected <svg/>, got %q", data)
	}
}

func TestRedisCache_Analysis(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	z := 1.5
	analysis := models.Analysis{
		Points: []models.DataPoint{{Name: "a", UV: 1, UVZScore: &z}},
		Fields: []models.FieldAnalysis{{Field: models.FieldUV, ZScores: []float64{z}}},
	}

	if _, err := c.GetAnalysis(ctx, "fp"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Expected ErrMiss, got %v", err)
	}
	if err := c.CacheAnalysis(ctx, "fp", analysis); err != nil {
		t.Fatalf("CacheAnalysis: %v", err)
	}

	got, err := c.GetAnalysis(ctx, "fp")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if len(got.Points) != 1 || got.Points[0].UVZScore == nil || *got.Points[0].UVZScore != z {
		t.Errorf("Unexpected analysis from cache: %+v", got)
	}
}

func TestRedisCache_Counters(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if n, err := c.GetCounter(ctx, ChartsRenderedKey); err != nil || n != 0 {
		t.Fatalf("Expected 0, nil; got %d, %v", n, err)
	}
	for i := 0; i < 3; i++ {
		if _, err := c.IncrementCounter(ctx, ChartsRenderedKey); err != nil {
			t.Fatalf("IncrementCounter: %v", err)
		}
	}
	if n, _ := c.GetCounter(ctx, ChartsRenderedKey); n != 3 {
		t.Errorf("Expected 3, got %d", n)
	}
}
