// Package analytics реализует статистический анализ ряда точек
// Включает z-score по всему ряду и разбиение ряда на normal/alert сегменты
package analytics

import (
	"fmt"
	"math"

	"zscore-chart/internal/models"
)

// AlertThreshold порог |z| для alert-классификации (> 1σ)
const AlertThreshold = 1.0

// DefaultFields поля, для которых по умолчанию считаются z-scores
var DefaultFields = []models.Field{models.FieldPV, models.FieldUV}

// Analyzer выполняет анализ набора точек: z-scores и сегменты по каждому полю
type Analyzer struct {
	threshold float64
}

// NewAnalyzer создает новый анализатор с заданным порогом.
// Отрицательный или нечисловой порог заменяется на AlertThreshold
func NewAnalyzer(threshold float64) *Analyzer {
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = AlertThreshold
	}
	return &Analyzer{threshold: threshold}
}

// Threshold возвращает порог классификации
func (a *Analyzer) Threshold() float64 {
	return a.threshold
}

// Analyze вычисляет z-scores для указанных полей, дополняет ими копию точек
// и разбивает каждое поле на сегменты. Исходный срез не изменяется
func (a *Analyzer) Analyze(points []models.DataPoint, fields ...models.Field) (models.Analysis, error) {
	if len(points) == 0 {
		return models.Analysis{}, fmt.Errorf("analyze: %w", ErrEmptyInput)
	}
	fields = uniqueFields(fields)

	augmented := make([]models.DataPoint, len(points))
	copy(augmented, points)

	results := make([]models.FieldAnalysis, 0, len(fields))
	for _, f := range fields {
		mean, stdDev, z, err := zScores(f.Values(points))
		if err != nil {
			return models.Analysis{}, fmt.Errorf("analyze field %s: %w", f, err)
		}
		for i := range augmented {
			augmented[i] = f.WithZScore(augmented[i], z[i])
		}
		results = append(results, models.FieldAnalysis{
			Field:     f,
			Mean:      mean,
			StdDev:    stdDev,
			Threshold: a.threshold,
			ZScores:   z,
		})
	}

	// Сегменты строятся после записи всех z-scores, чтобы точки в сегментах
	// несли значения для всех полей
	for i := range results {
		segments, err := SegmentWith(augmented, results[i].ZScores, a.threshold)
		if err != nil {
			return models.Analysis{}, fmt.Errorf("segment field %s: %w", results[i].Field, err)
		}
		results[i].Segments = segments
	}

	return models.Analysis{
		Points: augmented,
		Fields: results,
	}, nil
}

func uniqueFields(fields []models.Field) []models.Field {
	if len(fields) == 0 {
		return DefaultFields
	}
	seen := make(map[models.Field]struct{}, len(fields))
	out := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
