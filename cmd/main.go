package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/aleex825/budgetwise-backend/internal/database"
	"github.com/aleex825/budgetwise-backend/internal/handlers"
	"github.com/aleex825/budgetwise-backend/internal/logger"
	"github.com/aleex825/budgetwise-backend/internal/middlewares"
	"github.com/aleex825/budgetwise-backend/internal/repositories"
	"github.com/aleex825/budgetwise-backend/internal/services"

	_ "github.com/aleex825/budgetwise-backend/docs"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds everything read from the environment.
type config struct {
	AppHost   string
	AppPort   string
	LogLevel  string
	LogFormat string

	DatabaseURL  string
	MaxOpenConns int
	MaxIdleConns int

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AuthRateLimit  int
	AuthRateWindow time.Duration
	KafkaBrokers   []string
	KafkaTopic     string
}

// @title BudgetWise API
// @version 1.0.0
// @description Personal finance backend: accounts and income/expense transactions
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns
// the application, database, Redis, Kafka and logging configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("APP_LOG_FORMAT", "json")

	// Database config
	cfg.DatabaseURL = getEnv("DATABASE_URL", database.DefaultURL)
	if cfg.MaxOpenConns, err = strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "16")); err != nil {
		return cfg, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.MaxIdleConns, err = strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "8")); err != nil {
		return cfg, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	// Redis config
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return cfg, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.AuthRateLimit, err = strconv.Atoi(getEnv("AUTH_RATE_LIMIT", "20")); err != nil {
		return cfg, fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
	}
	windowSecond, err := strconv.Atoi(getEnv("AUTH_RATE_WINDOW_SECOND", "60"))
	if err != nil {
		return cfg, fmt.Errorf("AUTH_RATE_WINDOW_SECOND: %w", err)
	}
	cfg.AuthRateWindow = time.Duration(windowSecond) * time.Second

	// Kafka config
	for _, broker := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
		}
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "budgetwise.transactions")

	return cfg, nil
}

// run initializes the logger, database, optional Redis and Kafka clients, and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to the database and create the schema
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}
	logger.Log.Infow("Database ready", "driver", db.DriverName())

	// Connect to Redis
	var counter middlewares.Counter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection error: %w", err)
		}
		defer rdb.Close()
		counter = repositories.NewRateLimitRepository(rdb)
		logger.Log.Infow("Auth rate limiting enabled", "addr", cfg.RedisAddr,
			"limit", cfg.AuthRateLimit, "window", cfg.AuthRateWindow)
	}

	// Kafka producer for transaction events
	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		w := newKafkaWriter(cfg)
		defer w.Close()
		kafkaWriter = w
		logger.Log.Infow("Transaction events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler: newRouter(cfg, db, counter, kafkaWriter),
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}

// newKafkaWriter builds the transaction event producer. Writes are asynchronous
// so a slow broker never holds up a request; delivery errors are logged.
func newKafkaWriter(cfg config) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Log.Errorw("Failed to deliver transaction events", "count", len(messages), "error", err)
			}
		},
	}
}

// newRouter wires repositories, services and handlers into the HTTP routes.
// A nil counter disables auth rate limiting; a nil kafkaWriter disables events.
func newRouter(cfg config, db *sqlx.DB, counter middlewares.Counter, kafkaWriter services.KafkaWriter) http.Handler {
	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db, middlewares.GetTxFromContext)
	userWriteRepo := repositories.NewUserWriteRepository(db, middlewares.GetTxFromContext)
	txReadRepo := repositories.NewTransactionReadRepository(db, middlewares.GetTxFromContext)
	txWriteRepo := repositories.NewTransactionWriteRepository(db, middlewares.GetTxFromContext)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo)
	transactionService := services.NewTransactionService(userReadRepo, txReadRepo, txWriteRepo, kafkaWriter,
		services.WithAfterCommit(middlewares.AfterCommit))

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))
	r.Use(middlewares.CORSMiddleware())

	r.Get("/healthz", handlers.NewHealthHandler(db))

	r.Route("/auth", func(r chi.Router) {
		if counter != nil {
			r.Use(middlewares.RateLimitMiddleware(counter, "auth", int64(cfg.AuthRateLimit), cfg.AuthRateWindow))
		}
		r.Use(middlewares.TxMiddleware(db))
		r.Post("/signup", handlers.NewSignupHandler(authService))
		r.Post("/login", handlers.NewLoginHandler(authService))
		r.Post("/reset-password", handlers.NewResetPasswordHandler(authService))
	})

	r.Route("/users/{user_id}", func(r chi.Router) {
		r.Use(middlewares.TxMiddleware(db))
		r.Delete("/", handlers.NewDeleteUserHandler(authService))
		r.Get("/transactions", handlers.NewListTransactionsHandler(transactionService))
		r.Post("/transactions", handlers.NewUpsertTransactionHandler(transactionService))
		r.Delete("/transactions/{tx_id}", handlers.NewDeleteTransactionHandler(transactionService))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	return r
}
