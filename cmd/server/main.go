// Package main запускает сервис графика z-score аномалий
// Сервис реализует:
// - Z-score по всему ряду для полей pv и uv (стандартное отклонение по N)
// - Разбиение ряда на normal/alert сегменты (порог |z| > 1)
// - Отрисовку графика в SVG/PNG и отдачу описания слоев в JSON
// - Кэширование графиков и анализов в Redis
// - Экспорт метрик в Prometheus
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"zscore-chart/internal/analytics"
	"zscore-chart/internal/cache"
	"zscore-chart/internal/config"
	"zscore-chart/internal/dataset"
	"zscore-chart/internal/handlers"
	"zscore-chart/internal/metrics"
	"zscore-chart/internal/models"
	"zscore-chart/internal/render"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "zchart: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	v, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(v)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting zchart service",
		zap.String("go_version", runtime.Version()),
		zap.String("addr", cfg.Server.Addr),
	)

	points, err := loadPoints(cfg.Dataset.Path)
	if err != nil {
		return err
	}
	fields, err := cfg.Analysis.ParsedFields()
	if err != nil {
		return err
	}

	// Redis необязателен: без него сервис работает без кэша
	var store handlers.Cache
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache = connectRedis(cfg.Redis, logger)
		if redisCache != nil {
			store = redisCache
		}
	}

	// Анализ выполняется один раз до запуска сервера; ошибка останавливает запуск
	handler, err := handlers.NewHandler(
		analytics.NewAnalyzer(cfg.Analysis.Threshold),
		render.NewRenderer(),
		store,
		logger,
		points,
		handlers.Options{
			Fields:  fields,
			Palette: render.DefaultPalette(),
			Chart: render.Options{
				Title:  cfg.Chart.Title,
				Width:  cfg.Chart.Width,
				Height: cfg.Chart.Height,
				Bridge: cfg.Chart.Bridge,
			},
		},
	)
	if err != nil {
		return err
	}

	router := handler.Router()
	router.Handle("/prometheus", promhttp.Handler())
	router.Use(loggingMiddleware(logger))
	router.Use(metricsMiddleware)

	// Создаем HTTP сервер с настройками таймаутов
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Strings("endpoints", []string{
				"GET  /chart.svg, /chart.png",
				"POST /chart?format=svg|png",
				"GET|POST /analyze",
				"GET|POST /layers",
				"GET  /health, /stats, /prometheus",
			}),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if redisCache != nil {
		redisCache.Close()
	}

	logger.Info("server stopped")
	return nil
}

// loadPoints возвращает встроенный набор или набор из файла
func loadPoints(path string) ([]models.DataPoint, error) {
	if path == "" {
		return dataset.Sample(), nil
	}
	return dataset.Load(path)
}

// connectRedis подключается к Redis с повторами, nil если Redis недоступен
func connectRedis(cfg config.RedisConfig, logger *zap.Logger) *cache.RedisCache {
	attempts := cfg.Retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.NewRedisCache(ctx, cfg.Addr, cfg.Password, cfg.DB)
		cancel()
		if err == nil {
			logger.Info("connected to redis", zap.String("addr", cfg.Addr))
			return redisCache
		}
		lastErr = err
		logger.Warn("redis connection attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if i < attempts-1 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}

	logger.Warn("running without cache", zap.Error(lastErr))
	return nil
}

// loggingMiddleware логирует HTTP запросы
func loggingMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// metricsMiddleware считает запросы, не попавшие в обработчики API
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/prometheus" {
			metrics.RequestsTotal.WithLabelValues("/prometheus", r.Method, "200").Inc()
		}
		next.ServeHTTP(w, r)
	})
}
