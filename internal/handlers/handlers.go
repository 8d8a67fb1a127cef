// Package handlers содержит HTTP обработчики для API графика
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"zscore-chart/internal/analytics"
	"zscore-chart/internal/cache"
	"zscore-chart/internal/dataset"
	"zscore-chart/internal/metrics"
	"zscore-chart/internal/models"
	"zscore-chart/internal/render"
)

// maxBodyBytes ограничение размера загружаемого набора данных
const maxBodyBytes = 1 << 20

// Cache хранилище отрисованных графиков и результатов анализа
type Cache interface {
	GetChart(ctx context.Context, fingerprint, format string) ([]byte, error)
	CacheChart(ctx context.Context, fingerprint, format string, data []byte) error
	GetAnalysis(ctx context.Context, fingerprint string) (models.Analysis, error)
	CacheAnalysis(ctx context.Context, fingerprint string, analysis models.Analysis) error
	IncrementCounter(ctx context.Context, key string) (int64, error)
	GetCounter(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
}

// Options параметры обработчиков
type Options struct {
	Fields  []models.Field
	Palette render.Palette
	Chart   render.Options
}

// Handler содержит зависимости для HTTP обработчиков
type Handler struct {
	analyzer *analytics.Analyzer
	renderer *render.Renderer
	cache    Cache
	logger   *zap.Logger
	opts     Options

	// Анализ исходного набора вычисляется один раз при создании
	analysis  models.Analysis
	spec      render.ChartSpec
	cacheKey  string
	startTime time.Time
}

// NewHandler создает обработчик и сразу анализирует исходный набор точек.
// Ошибка анализа возвращается вызывающему и должна остановить запуск сервиса.
// cache может быть nil - тогда сервис работает без кэша
func NewHandler(analyzer *analytics.Analyzer, renderer *render.Renderer, c Cache, logger *zap.Logger, points []models.DataPoint, opts Options) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Fields) == 0 {
		opts.Fields = analytics.DefaultFields
	}
	if opts.Palette.Alert == "" {
		opts.Palette = render.DefaultPalette()
	}

	h := &Handler{
		analyzer:  analyzer,
		renderer:  renderer,
		cache:     c,
		logger:    logger,
		opts:      opts,
		startTime: time.Now(),
	}

	analysis, err := h.analyze(points)
	if err != nil {
		return nil, fmt.Errorf("analyze startup dataset: %w", err)
	}
	h.analysis = analysis
	h.spec = render.BuildChart(analysis, opts.Palette, opts.Chart)
	h.cacheKey = h.fingerprint(points)

	for _, fa := range analysis.Fields {
		logger.Info("field analyzed",
			zap.String("field", string(fa.Field)),
			zap.Float64("mean", fa.Mean),
			zap.Float64("std_dev", fa.StdDev),
			zap.Int("segments", len(fa.Segments)),
			zap.Int("alert_points", fa.AlertPoints()),
		)
	}

	return h, nil
}

// Analysis возвращает анализ исходного набора
func (h *Handler) Analysis() models.Analysis {
	return h.analysis
}

// Router регистрирует маршруты API
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/chart.{format:svg|png}", h.ChartHandler).Methods(http.MethodGet)
	router.HandleFunc("/chart", h.ChartUploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/analyze", h.AnalyzeHandler).Methods(http.MethodGet)
	router.HandleFunc("/analyze", h.AnalyzeUploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/layers", h.LayersHandler).Methods(http.MethodGet)
	router.HandleFunc("/layers", h.LayersUploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats", h.StatsHandler).Methods(http.MethodGet)

	return router
}

// ChartHandler обрабатывает GET /chart.{svg|png} - график исходного набора
func (h *Handler) ChartHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/chart"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	format, err := render.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		h.respondError(w, r, endpoint, err.Error(), http.StatusBadRequest)
		return
	}

	h.serveChart(w, r, endpoint, h.spec, h.cacheKey, format)
}

// ChartUploadHandler обрабатывает POST /chart?format=svg|png - график загруженного набора
func (h *Handler) ChartUploadHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/chart/upload"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	formatName := r.URL.Query().Get("format")
	if formatName == "" {
		formatName = string(render.FormatSVG)
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		h.respondError(w, r, endpoint, err.Error(), http.StatusBadRequest)
		return
	}

	points, ok := h.decodeDataset(w, r, endpoint)
	if !ok {
		return
	}
	analysis, ok := h.analyzeRequest(w, r, endpoint, points)
	if !ok {
		return
	}

	spec := render.BuildChart(analysis, h.opts.Palette, h.opts.Chart)
	h.serveChart(w, r, endpoint, spec, h.fingerprint(points), format)
}

// AnalyzeHandler обрабатывает GET /analyze - z-scores и сегменты исходного набора
func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/analyze"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	h.respondJSON(w, r, endpoint, h.analysis, http.StatusOK)
}

// AnalyzeUploadHandler обрабатывает POST /analyze - анализ загруженного набора
func (h *Handler) AnalyzeUploadHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/analyze/upload"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	points, ok := h.decodeDataset(w, r, endpoint)
	if !ok {
		return
	}
	analysis, ok := h.analyzeRequest(w, r, endpoint, points)
	if !ok {
		return
	}

	h.respondJSON(w, r, endpoint, analysis, http.StatusOK)
}

// LayersHandler обрабатывает GET /layers - описание слоев графика исходного набора
func (h *Handler) LayersHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/layers"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	h.respondJSON(w, r, endpoint, h.spec, http.StatusOK)
}

// LayersUploadHandler обрабатывает POST /layers - описание слоев загруженного набора
func (h *Handler) LayersUploadHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/layers/upload"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	points, ok := h.decodeDataset(w, r, endpoint)
	if !ok {
		return
	}
	analysis, ok := h.analyzeRequest(w, r, endpoint, points)
	if !ok {
		return
	}

	h.respondJSON(w, r, endpoint, render.BuildChart(analysis, h.opts.Palette, h.opts.Chart), http.StatusOK)
}

// HealthHandler обрабатывает GET /health - проверка здоровья
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	redisStatus := "disabled"
	if h.cache != nil {
		redisStatus = "connected"
		if err := h.cache.Ping(r.Context()); err != nil {
			redisStatus = "disconnected"
		}
	}

	status := models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Redis:     redisStatus,
		Uptime:    time.Since(h.startTime).String(),
	}

	h.respondJSON(w, r, "/health", status, http.StatusOK)
}

// StatsHandler обрабатывает GET /stats - статистика сервиса
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/stats"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	response := models.StatsResponse{
		AlertPoints: make(map[models.Field]int, len(h.analysis.Fields)),
		Segments:    make(map[models.Field]int, len(h.analysis.Fields)),
		Threshold:   h.analyzer.Threshold(),
	}
	for _, fa := range h.analysis.Fields {
		response.AlertPoints[fa.Field] = fa.AlertPoints()
		response.Segments[fa.Field] = len(fa.Segments)
	}

	if h.cache != nil {
		response.ChartsRendered, _ = h.cache.GetCounter(r.Context(), cache.ChartsRenderedKey)
		response.Analyses, _ = h.cache.GetCounter(r.Context(), cache.AnalysesKey)
	}

	h.respondJSON(w, r, endpoint, response, http.StatusOK)
}

// serveChart отдает график из кэша или отрисовывает и кэширует его
func (h *Handler) serveChart(w http.ResponseWriter, r *http.Request, endpoint string, spec render.ChartSpec, key string, format render.Format) {
	ctx := r.Context()

	if h.cache != nil {
		data, err := h.cache.GetChart(ctx, key, string(format))
		if err == nil {
			metrics.CacheHits.Inc()
			h.respondImage(w, r, endpoint, data, format)
			return
		}
		metrics.CacheMisses.Inc()
		if !errors.Is(err, cache.ErrMiss) {
			h.logger.Warn("chart cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	var buf bytes.Buffer
	start := time.Now()
	if err := h.renderer.Render(&buf, spec, format); err != nil {
		h.logger.Error("chart render failed", zap.String("format", string(format)), zap.Error(err))
		h.respondError(w, r, endpoint, "Failed to render chart: "+err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.RenderLatency.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())

	if h.cache != nil {
		if err := h.cache.CacheChart(ctx, key, string(format), buf.Bytes()); err != nil {
			h.logger.Warn("chart cache write failed", zap.String("key", key), zap.Error(err))
		}
		_, _ = h.cache.IncrementCounter(ctx, cache.ChartsRenderedKey)
	}

	h.respondImage(w, r, endpoint, buf.Bytes(), format)
}

// decodeDataset читает набор точек из тела запроса (JSON или YAML по Content-Type)
func (h *Handler) decodeDataset(w http.ResponseWriter, r *http.Request, endpoint string) ([]models.DataPoint, bool) {
	format, err := dataset.FormatFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		h.respondError(w, r, endpoint, err.Error(), http.StatusUnsupportedMediaType)
		return nil, false
	}

	points, err := dataset.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), format)
	if err != nil {
		h.respondError(w, r, endpoint, "Invalid dataset: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return points, true
}

// analyzeRequest анализирует загруженный набор с использованием кэша
func (h *Handler) analyzeRequest(w http.ResponseWriter, r *http.Request, endpoint string, points []models.DataPoint) (models.Analysis, bool) {
	ctx := r.Context()
	key := h.fingerprint(points)

	if h.cache != nil {
		analysis, err := h.cache.GetAnalysis(ctx, key)
		if err == nil {
			metrics.CacheHits.Inc()
			return analysis, true
		}
		metrics.CacheMisses.Inc()
		if !errors.Is(err, cache.ErrMiss) {
			h.logger.Warn("analysis cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	analysis, err := h.analyze(points)
	if err != nil {
		h.respondError(w, r, endpoint, "Analysis failed: "+err.Error(), http.StatusBadRequest)
		return models.Analysis{}, false
	}

	if h.cache != nil {
		if err := h.cache.CacheAnalysis(ctx, key, analysis); err != nil {
			h.logger.Warn("analysis cache write failed", zap.String("key", key), zap.Error(err))
		}
		_, _ = h.cache.IncrementCounter(ctx, cache.AnalysesKey)
	}
	return analysis, true
}

// analyze выполняет анализ и обновляет метрики Prometheus
func (h *Handler) analyze(points []models.DataPoint) (models.Analysis, error) {
	start := time.Now()
	analysis, err := h.analyzer.Analyze(points, h.opts.Fields...)
	if err != nil {
		return models.Analysis{}, err
	}
	metrics.AnalysisLatency.Observe(time.Since(start).Seconds())
	metrics.ObserveAnalysis(analysis)
	return analysis, nil
}

// fingerprint ключ кэша: набор данных плюс параметры анализа и графика
func (h *Handler) fingerprint(points []models.DataPoint) string {
	c := h.opts.Chart
	return fmt.Sprintf("%s:t%s:%v:%dx%d:b%t:%s",
		dataset.Fingerprint(points),
		strconv.FormatFloat(h.analyzer.Threshold(), 'g', -1, 64),
		h.opts.Fields,
		c.Width, c.Height, c.Bridge,
		strconv.Quote(c.Title),
	)
}

// respondImage отправляет изображение графика
func (h *Handler) respondImage(w http.ResponseWriter, r *http.Request, endpoint string, data []byte, format render.Format) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	metrics.RequestsTotal.WithLabelValues(endpoint, r.Method, "200").Inc()
}

// respondJSON отправляет JSON ответ
func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, endpoint string, data interface{}, status int) {
	// Тело кодируется до отправки заголовка, чтобы ошибка стала 500, а не пустым 200
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.String("endpoint", endpoint), zap.Error(err))
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(models.ErrorResponse{Error: "Failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	metrics.RequestsTotal.WithLabelValues(endpoint, r.Method, strconv.Itoa(status)).Inc()
}

// respondError отправляет ошибку в JSON формате
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, endpoint, message string, status int) {
	h.respondJSON(w, r, endpoint, models.ErrorResponse{Error: message}, status)
}
