package models

import "time"

// LayerPoint точка визуального слоя, Index - позиция на оси X
type LayerPoint struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Layer описание одного визуального слоя (линии) графика
type Layer struct {
	Key            string         `json:"key"`
	Field          Field          `json:"field"`
	Classification Classification `json:"classification"`
	Color          string         `json:"color"`
	Points         []LayerPoint   `json:"points"`
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis"`
	Uptime    string    `json:"uptime"`
}

// StatsResponse содержит статистику сервиса
type StatsResponse struct {
	ChartsRendered int64         `json:"charts_rendered"`
	Analyses       int64         `json:"analyses"`
	AlertPoints    map[Field]int `json:"alert_points"`
	Segments       map[Field]int `json:"segments"`
	Threshold      float64       `json:"threshold"`
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}
