package analytics

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

var (
	// ErrEmptyInput z-scores запрошены для пустого ряда
	ErrEmptyInput = errors.New("empty input series")
	// ErrNonFinite ряд содержит NaN или бесконечность
	ErrNonFinite = errors.New("non-finite value in series")
	// ErrLengthMismatch длины ряда точек и ряда z-scores различаются
	ErrLengthMismatch = errors.New("points and z-scores length mismatch")
)

// Summary возвращает среднее и стандартное отклонение генеральной совокупности (деление на N)
func Summary(values []float64) (mean, stdDev float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrEmptyInput
	}
	for i, v := range values {
		if !finite(v) {
			return 0, 0, fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
	}

	// Ряд из одинаковых значений: дисперсия строго 0,
	// без накопленной погрешности округления в среднем
	if constant(values) {
		return values[0], 0, nil
	}

	data := stats.Float64Data(values)
	mean, err = stats.Mean(data)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute mean: %w", err)
	}
	stdDev, err = stats.StandardDeviationPopulation(data)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute standard deviation: %w", err)
	}
	// Конечные, но очень большие значения переполняют сумму
	if !finite(mean) || !finite(stdDev) {
		return 0, 0, fmt.Errorf("%w: overflow in mean or standard deviation", ErrNonFinite)
	}
	return mean, stdDev, nil
}

// ZScores вычисляет z-score для каждого значения ряда:
// (x - mean) / stdDev. При нулевой дисперсии все z-scores равны 0
func ZScores(values []float64) ([]float64, error) {
	_, _, z, err := zScores(values)
	return z, err
}

func zScores(values []float64) (mean, stdDev float64, z []float64, err error) {
	mean, stdDev, err = Summary(values)
	if err != nil {
		return 0, 0, nil, err
	}

	z = make([]float64, len(values))
	if stdDev == 0 {
		return mean, stdDev, z, nil
	}
	for i, v := range values {
		z[i] = (v - mean) / stdDev
		if !finite(z[i]) {
			return 0, 0, nil, fmt.Errorf("%w: overflow in z-score at index %d", ErrNonFinite, i)
		}
	}
	return mean, stdDev, z, nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
