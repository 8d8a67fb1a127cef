// Package render строит описания визуальных слоев из сегментов
// и отрисовывает их в SVG/PNG
package render

import (
	"fmt"

	"zscore-chart/internal/models"
)

// Palette цвета слоев: свой normal-цвет для каждого поля и общий alert-цвет
type Palette struct {
	Normal map[models.Field]string
	Alert  string
}

// DefaultPalette палитра демонстрационного графика
func DefaultPalette() Palette {
	return Palette{
		Normal: map[models.Field]string{
			models.FieldPV:  "#8884d8",
			models.FieldUV:  "#82ca9d",
			models.FieldAmt: "#ffc658",
		},
		Alert: "#ff0000",
	}
}

// NormalColor возвращает normal-цвет поля
func (p Palette) NormalColor(f models.Field) string {
	if c, ok := p.Normal[f]; ok {
		return c
	}
	return "#8884d8"
}

// LayerOptions параметры построения слоев
type LayerOptions struct {
	// Bridge дополняет alert-слой первой точкой следующего normal-сегмента,
	// чтобы линия возвращалась из выброса к ряду. Normal-слои не дополняются
	Bridge bool
}

// BuildLayers строит по одному слою на сегмент. Цвет слоя определяется
// классификацией сегмента. Сегменты не изменяются
func BuildLayers(field models.Field, segments []models.Segment, normalColor, alertColor string, opts LayerOptions) []models.Layer {
	layers := make([]models.Layer, 0, len(segments))

	for i, s := range segments {
		color := normalColor
		if s.Classification == models.Alert {
			color = alertColor
		}

		points := make([]models.LayerPoint, 0, len(s.Points)+1)
		for j, p := range s.Points {
			points = append(points, layerPoint(field, s.Start+j, p))
		}
		if opts.Bridge && s.Classification == models.Alert && i+1 < len(segments) && len(segments[i+1].Points) > 0 {
			next := segments[i+1]
			points = append(points, layerPoint(field, next.Start, next.Points[0]))
		}

		layers = append(layers, models.Layer{
			Key:            LayerKey(field, s),
			Field:          field,
			Classification: s.Classification,
			Color:          color,
			Points:         points,
		})
	}

	return layers
}

// LayerKey уникальный ключ слоя: поле, начало сегмента и класс
func LayerKey(field models.Field, s models.Segment) string {
	return fmt.Sprintf("%s-%d-%s", field, s.Start, s.Classification)
}

func layerPoint(field models.Field, index int, p models.DataPoint) models.LayerPoint {
	return models.LayerPoint{
		Index: index,
		Name:  p.Name,
		Value: field.Value(p),
	}
}

// ChartSpec полное описание графика, не зависящее от технологии отрисовки
type ChartSpec struct {
	Title  string         `json:"title,omitempty"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Labels []string       `json:"labels"`
	Layers []models.Layer `json:"layers"`
}

// Options параметры графика
type Options struct {
	Title  string
	Width  int
	Height int
	Bridge bool
}

// DefaultOptions размеры демонстрационного графика
func DefaultOptions() Options {
	return Options{
		Width:  1000,
		Height: 500,
		Bridge: true,
	}
}

// BuildChart собирает описание графика из результата анализа.
// Слои идут в порядке полей анализа
func BuildChart(analysis models.Analysis, palette Palette, opts Options) ChartSpec {
	defaults := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = defaults.Height
	}

	labels := make([]string, len(analysis.Points))
	for i, p := range analysis.Points {
		labels[i] = p.Name
	}

	var layers []models.Layer
	for _, fa := range analysis.Fields {
		layers = append(layers, BuildLayers(
			fa.Field,
			fa.Segments,
			palette.NormalColor(fa.Field),
			palette.Alert,
			LayerOptions{Bridge: opts.Bridge},
		)...)
	}

	return ChartSpec{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Labels: labels,
		Layers: layers,
	}
}
