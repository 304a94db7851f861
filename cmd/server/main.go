package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickstory-server/internal/catalog"
	"quickstory-server/internal/config"
	"quickstory-server/internal/database"
	"quickstory-server/internal/engine"
	"quickstory-server/internal/handler"
	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/messaging"
	"quickstory-server/internal/middleware"
	"quickstory-server/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск QuickStory Service...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// Каталог историй: валидация графов при загрузке, дефект данных фатален
	storyCatalog, err := catalog.New(zapLogger)
	if err != nil {
		zapLogger.Fatal("Не удалось загрузить каталог историй", zap.Error(err))
	}

	// Репозиторий прогресса по выбранному бэкенду
	progressRepo, cleanup, err := setupProgressRepository(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Не удалось инициализировать хранилище прогресса", zap.Error(err))
	}
	defer cleanup()

	// Публикация игровых событий: RabbitMQ либо заглушка
	var eventPublisher interfaces.GameEventPublisher
	if cfg.RabbitMQURL != "" {
		rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()

		publisher, err := messaging.NewRabbitMQGameEventPublisher(rabbitConn, cfg.GameEventsQueue, zapLogger)
		if err != nil {
			zapLogger.Fatal("Не удалось создать GameEventPublisher", zap.Error(err))
		}
		defer publisher.Close()
		eventPublisher = publisher
		zapLogger.Info("Успешное подключение к RabbitMQ")
	} else {
		eventPublisher = messaging.NewNopGameEventPublisher(zapLogger)
	}

	metrics := engine.NewMetrics(prometheus.DefaultRegisterer)
	hub := engine.NewHub(storyCatalog, progressRepo, eventPublisher, engine.Config{}, metrics, zapLogger)

	verifier, err := middleware.NewJWTVerifier(cfg.JWTSecret, zapLogger)
	if err != nil {
		zapLogger.Fatal("Не удалось создать JWTVerifier", zap.Error(err))
	}

	gameManager := handler.NewGameManager(verifier, zapLogger)
	hub.SetNotifier(gameManager)

	gameplayHandler := handler.NewGameplayHandler(hub, storyCatalog, zapLogger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLoggingMiddleware(zapLogger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Device-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	gameplayHandler.RegisterRoutes(router, middleware.PlayerIdentity(verifier, zapLogger))
	router.GET("/ws", gameManager.ServeWS)

	// Prometheus middleware применяется после регистрации роутов
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zapLogger.Info("Starting HTTP server", zap.String("port", cfg.Port))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	// Сначала гасим таймеры сессий, чтобы авторазрешения не стреляли во
	// время остановки
	hub.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}

// setupProgressRepository создает репозиторий прогресса согласно
// PROGRESS_BACKEND и возвращает функцию освобождения ресурсов.
func setupProgressRepository(cfg *config.Config, zapLogger *zap.Logger) (interfaces.ProgressRepository, func(), error) {
	switch cfg.ProgressBackend {
	case config.BackendMemory:
		zapLogger.Info("Using in-memory progress store")
		return database.NewMemoryProgressRepository(), func() {}, nil

	case config.BackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
		}
		zapLogger.Info("Успешное подключение к Redis", zap.String("addr", cfg.RedisAddr))
		return database.NewRedisProgressRepository(redisClient, zapLogger), func() { _ = redisClient.Close() }, nil

	case config.BackendPostgres:
		pool, err := setupDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.ApplyMigrations(pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("не удалось применить миграции: %w", err)
		}
		zapLogger.Info("Успешное подключение к PostgreSQL")
		return database.NewPgProgressRepository(pool, zapLogger), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("неизвестный PROGRESS_BACKEND: %q", cfg.ProgressBackend)
	}
}

// setupDatabase инициализирует и возвращает пул соединений с БД.
func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул соединений: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД (ping failed): %w", err)
	}
	return pool, nil
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func connectRabbitMQ(url string, zapLogger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		zapLogger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
