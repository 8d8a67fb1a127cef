package models

// Classification классификация точки или сегмента по z-score
type Classification string

const (
	// Normal |z| <= порога
	Normal Classification = "normal"
	// Alert |z| > порога
	Alert Classification = "alert"
)

// Segment непрерывная последовательность точек с одной классификацией.
// Start - индекс первой точки сегмента в исходном ряду
type Segment struct {
	Classification Classification `json:"classification"`
	Start          int            `json:"start"`
	Points         []DataPoint    `json:"points"`
}

// End возвращает индекс, следующий за последней точкой сегмента
func (s Segment) End() int {
	return s.Start + len(s.Points)
}

// FieldAnalysis результат анализа одного поля
type FieldAnalysis struct {
	Field     Field     `json:"field"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"std_dev"`
	Threshold float64   `json:"threshold"`
	ZScores   []float64 `json:"z_scores"`
	Segments  []Segment `json:"segments"`
}

// AlertPoints возвращает количество точек в alert-сегментах
func (fa FieldAnalysis) AlertPoints() int {
	n := 0
	for _, s := range fa.Segments {
		if s.Classification == Alert {
			n += len(s.Points)
		}
	}
	return n
}

// Analysis полный результат анализа набора данных
type Analysis struct {
	Points []DataPoint     `json:"points"`
	Fields []FieldAnalysis `json:"fields"`
}

// Field возвращает анализ указанного поля
func (a Analysis) Field(f Field) (FieldAnalysis, bool) {
	for _, fa := range a.Fields {
		if fa.Field == f {
			return fa, true
		}
	}
	return FieldAnalysis{}, false
}
