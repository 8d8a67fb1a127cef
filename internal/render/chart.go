package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format формат изображения графика
type Format string

const (
	// FormatSVG векторное изображение
	FormatSVG Format = "svg"
	// FormatPNG растровое изображение
	FormatPNG Format = "png"
)

var (
	// ErrUnknownFormat неподдерживаемый формат изображения
	ErrUnknownFormat = errors.New("unknown chart format")
	// ErrNoLayers в описании графика нет ни одного слоя
	ErrNoLayers = errors.New("chart has no layers")
)

// ParseFormat проверяет строковое имя формата
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType возвращает MIME-тип формата
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Renderer отрисовывает ChartSpec через go-chart
type Renderer struct {
	DotWidth    float64
	StrokeWidth float64
}

// NewRenderer создает отрисовщик с параметрами линий по умолчанию
func NewRenderer() *Renderer {
	return &Renderer{
		DotWidth:    4,
		StrokeWidth: 2,
	}
}

// Render рисует по одной линии на слой с маркерами точек,
// пунктирной сеткой и подписями категорий по оси X
func (r *Renderer) Render(w io.Writer, spec ChartSpec, format Format) error {
	if len(spec.Layers) == 0 {
		return ErrNoLayers
	}

	var provider chart.RendererProvider
	switch format {
	case FormatSVG:
		provider = chart.SVG
	case FormatPNG:
		provider = chart.PNG
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	series := make([]chart.Series, 0, len(spec.Layers))
	for _, l := range spec.Layers {
		col, err := parseColor(l.Color)
		if err != nil {
			return fmt.Errorf("layer %s: %w", l.Key, err)
		}

		xs := make([]float64, len(l.Points))
		ys := make([]float64, len(l.Points))
		for i, p := range l.Points {
			xs[i] = float64(p.Index)
			ys[i] = p.Value
		}

		series = append(series, chart.ContinuousSeries{
			Name:    l.Key,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: r.StrokeWidth,
				DotColor:    col,
				DotWidth:    r.DotWidth,
			},
		})
	}

	yMin, yMax := valueRange(spec)
	ch := chart.Chart{
		Title:  spec.Title,
		Width:  spec.Width,
		Height: spec.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 5, Left: 20, Right: 30, Bottom: 5},
		},
		XAxis: chart.XAxis{
			Ticks:          categoryTicks(spec),
			Range:          &chart.ContinuousRange{Min: 0, Max: math.Max(float64(len(spec.Labels)-1), 1)},
			GridMajorStyle: gridStyle(),
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: yMin, Max: yMax},
			GridMajorStyle: gridStyle(),
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// categoryTicks подписывает позиции оси X именами точек
func categoryTicks(spec ChartSpec) []chart.Tick {
	ticks := make([]chart.Tick, 0, len(spec.Labels)+1)
	for i, label := range spec.Labels {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: label})
	}
	// Ось из одной категории растягивается до второго деления
	if len(ticks) == 1 {
		ticks = append(ticks, chart.Tick{Value: 1, Label: ""})
	}
	return ticks
}

// valueRange диапазон оси Y с отступом 5%; для постоянных значений ±1
func valueRange(spec ChartSpec) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range spec.Layers {
		for _, p := range l.Points {
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 1
	}
	if hi == lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func gridStyle() chart.Style {
	return chart.Style{
		StrokeColor:     drawing.ColorFromHex("cccccc"),
		StrokeWidth:     1,
		StrokeDashArray: []float64{3, 3},
	}
}

// parseColor разбирает цвет вида #rrggbb или #rgb
func parseColor(s string) (drawing.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return drawing.Color{}, fmt.Errorf("invalid color %q", s)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return drawing.Color{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return drawing.ColorFromHex(hex), nil
}
