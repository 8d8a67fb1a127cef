// Package models содержит структуры данных для точек графика, сегментов и слоев
package models

import "fmt"

// DataPoint представляет одну точку исходного набора данных
// Z-scores заполняются один раз после вычисления и далее не меняются
type DataPoint struct {
	Name     string   `json:"name" yaml:"name"`
	UV       float64  `json:"uv" yaml:"uv"`
	PV       float64  `json:"pv" yaml:"pv"`
	Amt      float64  `json:"amt" yaml:"amt"`
	UVZScore *float64 `json:"uvZScore,omitempty" yaml:"uvZScore,omitempty"`
	PVZScore *float64 `json:"pvZScore,omitempty" yaml:"pvZScore,omitempty"`
}

// Field ключ измерения в DataPoint
type Field string

const (
	// FieldUV поле uv
	FieldUV Field = "uv"
	// FieldPV поле pv
	FieldPV Field = "pv"
	// FieldAmt поле amt (z-score для него не хранится в точке)
	FieldAmt Field = "amt"
)

// ParseField проверяет строковое имя поля
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldUV, FieldPV, FieldAmt:
		return f, nil
	default:
		return "", fmt.Errorf("unknown field %q", s)
	}
}

// Value возвращает значение поля для точки
func (f Field) Value(p DataPoint) float64 {
	switch f {
	case FieldUV:
		return p.UV
	case FieldPV:
		return p.PV
	case FieldAmt:
		return p.Amt
	default:
		return 0
	}
}

// Values извлекает ряд значений поля с сохранением порядка точек
func (f Field) Values(points []DataPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = f.Value(p)
	}
	return values
}

// ZScore возвращает сохраненный в точке z-score поля, если он есть
func (f Field) ZScore(p DataPoint) (float64, bool) {
	var z *float64
	switch f {
	case FieldUV:
		z = p.UVZScore
	case FieldPV:
		z = p.PVZScore
	}
	if z == nil {
		return 0, false
	}
	return *z, true
}

// WithZScore возвращает копию точки с записанным z-score поля
func (f Field) WithZScore(p DataPoint, z float64) DataPoint {
	switch f {
	case FieldUV:
		p.UVZScore = &z
	case FieldPV:
		p.PVZScore = &z
	}
	return p
}
