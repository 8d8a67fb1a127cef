// Package cache реализует кэширование отрисованных графиков и результатов анализа в Redis
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"zscore-chart/internal/models"
)

const (
	// ChartKeyPrefix префикс для ключей отрисованных графиков
	ChartKeyPrefix = "chart:"
	// AnalysisKeyPrefix префикс для результатов анализа
	AnalysisKeyPrefix = "analysis:"
	// ChartsRenderedKey счетчик отрисованных графиков
	ChartsRenderedKey = "stats:charts_rendered"
	// AnalysesKey счетчик выполненных анализов
	AnalysesKey = "stats:analyses"
	// ChartTTL время жизни отрисованного графика
	ChartTTL = 1 * time.Hour
	// AnalysisTTL время жизни результата анализа
	AnalysisTTL = 1 * time.Hour
)

// ErrMiss ключ отсутствует в кэше
var ErrMiss = errors.New("cache miss")

// RedisCache реализует кэширование в Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache создает новое подключение к Redis
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// ChartKey ключ графика для отпечатка набора данных и формата
func ChartKey(fingerprint, format string) string {
	return fmt.Sprintf("%s%s:%s", ChartKeyPrefix, fingerprint, format)
}

// AnalysisKey ключ результата анализа для отпечатка набора данных
func AnalysisKey(fingerprint string) string {
	return AnalysisKeyPrefix + fingerprint
}

// CacheChart сохраняет отрисованный график
func (r *RedisCache) CacheChart(ctx context.Context, fingerprint, format string, data []byte) error {
	if err := r.client.Set(ctx, ChartKey(fingerprint, format), data, ChartTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache chart: %w", err)
	}
	return nil
}

// GetChart возвращает отрисованный график или ErrMiss
func (r *RedisCache) GetChart(ctx context.Context, fingerprint, format string) ([]byte, error) {
	data, err := r.client.Get(ctx, ChartKey(fingerprint, format)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}
	return data, nil
}

// CacheAnalysis сохраняет результат анализа
func (r *RedisCache) CacheAnalysis(ctx context.Context, fingerprint string, analysis models.Analysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := r.client.Set(ctx, AnalysisKey(fingerprint), data, AnalysisTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}
	return nil
}

// GetAnalysis возвращает результат анализа или ErrMiss
func (r *RedisCache) GetAnalysis(ctx context.Context, fingerprint string) (models.Analysis, error) {
	var analysis models.Analysis

	data, err := r.client.Get(ctx, AnalysisKey(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return analysis, ErrMiss
	}
	if err != nil {
		return analysis, fmt.Errorf("failed to get analysis: %w", err)
	}

	if err := json.Unmarshal(data, &analysis); err != nil {
		return analysis, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return analysis, nil
}

// IncrementCounter увеличивает счетчик
func (r *RedisCache) IncrementCounter(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

// GetCounter возвращает значение счетчика
func (r *RedisCache) GetCounter(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// Ping проверяет соединение с Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close закрывает соединение
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// FlushDB очищает базу (только для тестов)
func (r *RedisCache) FlushDB(ctx context.Context) error {
	return r.client.FlushDB(ctx).Err()
}
