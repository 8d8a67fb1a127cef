// Package dataset содержит встроенный демонстрационный набор точек
// и загрузку внешних наборов из JSON/YAML
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"zscore-chart/internal/models"
)

// Format формат файла набора данных
type Format string

const (
	// FormatJSON JSON массив точек
	FormatJSON Format = "json"
	// FormatYAML YAML список точек
	FormatYAML Format = "yaml"
)

// ErrEmptyDataset набор не содержит ни одной точки
var ErrEmptyDataset = errors.New("dataset is empty")

// sample демонстрационные данные графика
var sample = []models.DataPoint{
	{Name: "Page A", UV: 4000, PV: 2400, Amt: 2400},
	{Name: "Page B", UV: 3000, PV: 1398, Amt: 2210},
	{Name: "Page C", UV: 2000, PV: 9800, Amt: 2290},
	{Name: "Page D", UV: 2780, PV: 3908, Amt: 2000},
	{Name: "Page E", UV: 1890, PV: 4800, Amt: 2181},
	{Name: "Page F", UV: 2390, PV: 3800, Amt: 2500},
	{Name: "Page G", UV: 3490, PV: 4300, Amt: 2100},
}

// Sample возвращает копию демонстрационного набора из семи точек
func Sample() []models.DataPoint {
	points := make([]models.DataPoint, len(sample))
	copy(points, sample)
	return points
}

// FormatFromPath определяет формат по расширению файла
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported dataset extension %q", filepath.Ext(path))
	}
}

// FormatFromContentType определяет формат по заголовку Content-Type.
// Пустой заголовок считается JSON
func FormatFromContentType(contentType string) (Format, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case "", "application/json":
		return FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
}

// Load читает набор точек из файла .json, .yaml или .yml
func Load(path string) ([]models.DataPoint, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	points, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	return points, nil
}

// Decode декодирует набор точек в заданном формате
func Decode(r io.Reader, format Format) ([]models.DataPoint, error) {
	var points []models.DataPoint

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&points); err != nil {
			return nil, fmt.Errorf("failed to decode JSON dataset: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&points); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode YAML dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", format)
	}

	if len(points) == 0 {
		return nil, ErrEmptyDataset
	}

	// Z-scores всегда вычисляются заново, входные значения игнорируются
	for i := range points {
		points[i].UVZScore = nil
		points[i].PVZScore = nil
	}
	return points, nil
}

// Fingerprint возвращает стабильный хэш значений набора, используется как ключ кэша
func Fingerprint(points []models.DataPoint) string {
	var buf bytes.Buffer
	for _, p := range points {
		buf.WriteString(strconv.Quote(p.Name))
		buf.WriteByte('|')
		buf.WriteString(strconv.FormatFloat(p.UV, 'g', -1, 64))
		buf.WriteByte('|')
		buf.WriteString(strconv.FormatFloat(p.PV, 'g', -1, 64))
		buf.WriteByte('|')
		buf.WriteString(strconv.FormatFloat(p.Amt, 'g', -1, 64))
		buf.WriteByte('\n')
	}
	return strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16)
}
