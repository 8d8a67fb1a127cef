package analytics

import (
	"fmt"
	"math"

	"zscore-chart/internal/models"
)

// Classify классифицирует z-score по порогу AlertThreshold
func Classify(z float64) models.Classification {
	return ClassifyWith(z, AlertThreshold)
}

// ClassifyWith возвращает Alert, если |z| строго больше порога.
// Значение ровно на пороге считается Normal
func ClassifyWith(z, threshold float64) models.Classification {
	if math.Abs(z) > threshold {
		return models.Alert
	}
	return models.Normal
}

// Segment разбивает ряд точек на сегменты по порогу AlertThreshold
func Segment(points []models.DataPoint, zScores []float64) ([]models.Segment, error) {
	return SegmentWith(points, zScores, AlertThreshold)
}

// SegmentWith разбивает ряд точек на максимальные непрерывные сегменты
// с одинаковой классификацией. Граница сегмента ставится только там,
// где классификация точки отличается от предыдущей.
// Конкатенация точек всех сегментов равна исходному ряду
func SegmentWith(points []models.DataPoint, zScores []float64, threshold float64) ([]models.Segment, error) {
	if len(points) != len(zScores) {
		return nil, fmt.Errorf("%w: %d points, %d z-scores", ErrLengthMismatch, len(points), len(zScores))
	}

	segments := make([]models.Segment, 0, Transitions(zScores, threshold)+1)
	if len(points) == 0 {
		return segments, nil
	}

	start := 0
	current := ClassifyWith(zScores[0], threshold)
	for i := 1; i < len(points); i++ {
		c := ClassifyWith(zScores[i], threshold)
		if c == current {
			continue
		}
		segments = append(segments, newSegment(points, start, i, current))
		start, current = i, c
	}

	// Последний сегмент выводится всегда, его класс определяет последняя точка
	segments = append(segments, newSegment(points, start, len(points), current))
	return segments, nil
}

// Transitions возвращает количество смен классификации между соседними точками
func Transitions(zScores []float64, threshold float64) int {
	n := 0
	for i := 1; i < len(zScores); i++ {
		if ClassifyWith(zScores[i], threshold) != ClassifyWith(zScores[i-1], threshold) {
			n++
		}
	}
	return n
}

func newSegment(points []models.DataPoint, start, end int, c models.Classification) models.Segment {
	pts := make([]models.DataPoint, end-start)
	copy(pts, points[start:end])
	return models.Segment{
		Classification: c,
		Start:          start,
		Points:         pts,
	}
}
