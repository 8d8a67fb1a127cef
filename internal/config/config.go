// Package config загружает конфигурацию сервиса из файла и переменных окружения
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"zscore-chart/internal/models"
)

// EnvPrefix префикс переменных окружения: ZCHART_SERVER_ADDR=:9090
const EnvPrefix = "ZCHART"

// Config содержит конфигурацию сервиса
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
}

// ServerConfig параметры HTTP сервера
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RedisConfig параметры подключения к Redis
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Retries  int    `mapstructure:"retries"`
}

// ChartConfig параметры графика
type ChartConfig struct {
	Title  string `mapstructure:"title"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Bridge bool   `mapstructure:"bridge"`
}

// AnalysisConfig параметры анализа
type AnalysisConfig struct {
	Threshold float64  `mapstructure:"threshold"`
	Fields    []string `mapstructure:"fields"`
}

// DatasetConfig источник данных; пустой путь означает встроенный набор
type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

// Load читает конфигурацию из файла (если задан или найден) и окружения
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("zchart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Файл конфигурации не обязателен
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.retries", 5)
	v.SetDefault("chart.title", "")
	v.SetDefault("chart.width", 1000)
	v.SetDefault("chart.height", 500)
	v.SetDefault("chart.bridge", true)
	v.SetDefault("analysis.threshold", 1.0)
	v.SetDefault("analysis.fields", []string{"pv", "uv"})
	v.SetDefault("dataset.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Decode разбирает настройки в Config и проверяет их
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := cfg.Analysis.ParsedFields(); err != nil {
		return nil, err
	}
	if cfg.Analysis.Threshold < 0 {
		return nil, fmt.Errorf("analysis.threshold must be non-negative, got %g", cfg.Analysis.Threshold)
	}
	if cfg.Chart.Width <= 0 || cfg.Chart.Height <= 0 {
		return nil, fmt.Errorf("chart size must be positive, got %dx%d", cfg.Chart.Width, cfg.Chart.Height)
	}
	return &cfg, nil
}

// ParsedFields возвращает поля анализа как models.Field
func (c AnalysisConfig) ParsedFields() ([]models.Field, error) {
	fields := make([]models.Field, 0, len(c.Fields))
	for _, s := range c.Fields {
		f, err := models.ParseField(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("analysis.fields: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
