package config

import (
	"errors"
	"fmt"
	"os"

	"hostelbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Resources  ResourcesConfig  `yaml:"resources"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BookingConfig задает параметры сетки слотов и правила передачи.
type BookingConfig struct {
	SlotMinutes           int `yaml:"slot_minutes"`
	SlotCount             int `yaml:"slot_count"`
	ClosingHour           int `yaml:"closing_hour"`
	MinimumUsableMinutes  int `yaml:"minimum_usable_minutes"`
	StatusCacheTTLSeconds int `yaml:"status_cache_ttl_seconds"`
}

type ResourcesConfig struct {
	File string `yaml:"file"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Resources.File == "" {
		return errors.New("resources file is required")
	}
	if c.Booking.ClosingHour < 1 || c.Booking.ClosingHour > 24 {
		return fmt.Errorf("closing hour %d is out of range", c.Booking.ClosingHour)
	}
	return nil
}

// ValidateResources проверяет посевной список ресурсов перед загрузкой в БД.
func ValidateResources(resources []models.Resource) error {
	ids := make(map[string]bool)
	for _, r := range resources {
		if r.ID == "" {
			return fmt.Errorf("resource %q has empty id", r.Name)
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate resource id found: %s", r.ID)
		}
		ids[r.ID] = true
		if r.FacilityID == "" {
			return fmt.Errorf("resource %s has empty facility_id", r.ID)
		}
		if r.Category == "" {
			return fmt.Errorf("resource %s has empty category", r.ID)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.DefaultRateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.DefaultRateLimitBurst
	}

	// Параметры бронирования
	if c.Booking.SlotMinutes == 0 {
		c.Booking.SlotMinutes = models.DefaultSlotMinutes
	}
	if c.Booking.SlotCount == 0 {
		c.Booking.SlotCount = models.DefaultSlotCount
	}
	if c.Booking.ClosingHour == 0 {
		c.Booking.ClosingHour = models.DefaultClosingHour
	}
	if c.Booking.MinimumUsableMinutes == 0 {
		c.Booking.MinimumUsableMinutes = models.DefaultMinimumUsableMinutes
	}
	if c.Booking.StatusCacheTTLSeconds == 0 {
		c.Booking.StatusCacheTTLSeconds = models.DefaultStatusCacheTTL
	}
}
