package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zscore-chart/internal/models"
)

func TestSample(t *testing.T) {
	points := Sample()
	if len(points) != 7 {
		t.Fatalf("Expected 7 points, got %d", len(points))
	}
	if points[0].Name != "Page A" || points[6].Name != "Page G" {
		t.Errorf("Unexpected order: first %q, last %q", points[0].Name, points[6].Name)
	}

	// Sample возвращает независимую копию
	points[0].UV = -1
	if Sample()[0].UV != 4000 {
		t.Error("Sample() shares its backing array with callers")
	}
}

func TestDecode_JSON(t *testing.T) {
	body := `[{"name":"a","uv":1,"pv":2,"amt":3,"uvZScore":9},{"name":"b","uv":4,"pv":5,"amt":6}]`

	points, err := Decode(strings.NewReader(body), FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	if points[1].PV != 5 {
		t.Errorf("Expected pv 5, got %g", points[1].PV)
	}
	if points[0].UVZScore != nil {
		t.Error("Incoming z-scores should be discarded")
	}
}

func TestDecode_YAML(t *testing.T) {
	body := "- name: a\n  uv: 1\n  pv: 2\n  amt: 3\n- name: b\n  uv: 4\n  pv: 5\n  amt: 6\n"

	points, err := Decode(strings.NewReader(body), FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(points) != 2 || points[1].Name != "b" || points[1].Amt != 6 {
		t.Errorf("Unexpected points: %+v", points)
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, err := Decode(strings.NewReader("[]"), FormatJSON); !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("Expected ErrEmptyDataset for JSON, got %v", err)
	}
	if _, err := Decode(strings.NewReader(""), FormatYAML); !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("Expected ErrEmptyDataset for YAML, got %v", err)
	}
	if _, err := Decode(strings.NewReader("{"), FormatJSON); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.yml")
	if err := os.WriteFile(path, []byte("- name: x\n  uv: 10\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	points, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(points) != 1 || points[0].UV != 10 {
		t.Errorf("Unexpected points: %+v", points)
	}

	if _, err := Load(filepath.Join(dir, "points.csv")); err == nil {
		t.Error("Expected error for unsupported extension")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFormatFromContentType(t *testing.T) {
	tests := map[string]Format{
		"":                                FormatJSON,
		"application/json":                FormatJSON,
		"application/json; charset=utf-8": FormatJSON,
		"application/yaml":                FormatYAML,
		"text/yaml":                       FormatYAML,
	}
	for ct, want := range tests {
		got, err := FormatFromContentType(ct)
		if err != nil || got != want {
			t.Errorf("FormatFromContentType(%q) = %q, %v; expected %q", ct, got, err, want)
		}
	}
	if _, err := FormatFromContentType("text/csv"); err == nil {
		t.Error("Expected error for text/csv")
	}
}

func TestFingerprint(t *testing.T) {
	a := Sample()
	b := Sample()
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("Fingerprint should be stable for equal datasets")
	}

	z := 1.5
	b[0].UVZScore = &z
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("Fingerprint should ignore z-scores")
	}

	b[3] = models.DataPoint{Name: "Page D", UV: 2781, PV: 3908, Amt: 2000}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("Fingerprint should change when values change")
	}
}
