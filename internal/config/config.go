package config

import (
	"fmt"
	"log"
	"time"

	"quickstory-server/internal/utils"

	"github.com/kelseyhightower/envconfig"
)

// Поддерживаемые бэкенды хранения прогресса.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config содержит конфигурацию сервиса QuickStory.
type Config struct {
	// Настройки сервера
	Port           string   `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding    string   `envconfig:"LOG_ENCODING" default:"json"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	// Бэкенд хранения прогресса: memory, redis или postgres
	ProgressBackend string `envconfig:"PROGRESS_BACKEND" default:"memory"`

	// Настройки PostgreSQL (нужны только при PROGRESS_BACKEND=postgres)
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"quickstory"`
	DBName        string        `envconfig:"DB_NAME" default:"quickstory"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки Redis (нужны только при PROGRESS_BACKEND=redis)
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	// Настройки RabbitMQ. Пустой URL отключает публикацию игровых событий.
	RabbitMQURL     string `envconfig:"RABBITMQ_URL"`
	GameEventsQueue string `envconfig:"GAME_EVENTS_QUEUE" default:"game_events"`

	// Секретное поле БЕЗ envconfig тега
	JWTSecret string
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации quickstory-server: %w", err)
	}

	switch cfg.ProgressBackend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("неизвестный PROGRESS_BACKEND: %q", cfg.ProgressBackend)
	}

	var loadErr error
	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret", "JWT_SECRET")
	if loadErr != nil {
		return nil, loadErr
	}

	// Пароль БД обязателен только для postgres-бэкенда
	if cfg.ProgressBackend == BackendPostgres {
		cfg.DBPassword, loadErr = utils.ReadSecret("db_password", "DB_PASSWORD")
		if loadErr != nil {
			return nil, loadErr
		}
	}

	log.Printf("Конфигурация QuickStory Service загружена:")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  Progress Backend: %s", cfg.ProgressBackend)
	if cfg.ProgressBackend == BackendPostgres {
		log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	}
	if cfg.ProgressBackend == BackendRedis {
		log.Printf("  Redis Addr: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.RabbitMQURL != "" {
		log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
		log.Printf("  Game Events Queue: %s", cfg.GameEventsQueue)
	} else {
		log.Printf("  RabbitMQ: отключен (события не публикуются)")
	}
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}
