package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/cache"
	"github.com/LeeRude11/delivery/controllers"
	"github.com/LeeRude11/delivery/database"
	"github.com/LeeRude11/delivery/events"
	"github.com/LeeRude11/delivery/logger"
	"github.com/LeeRude11/delivery/middleware"
	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/LeeRude11/delivery/repository"
	"github.com/LeeRude11/delivery/routes"
	"github.com/LeeRude11/delivery/services"
	"github.com/LeeRude11/delivery/session"
	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "delivery"

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(ctx)
	if err != nil {
		logger.Initialize(os.Getenv("ENV")).Fatal("Config load failed", zap.Error(err))
	}

	// --- AWS setup ---
	var awsCfgLoaded bool
	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err == nil {
		awsCfgLoaded = true
	}

	// --- Logging ---
	var log *zap.Logger
	if cfg.CloudWatchEnabled && awsCfgLoaded {
		cwClient, cwErr := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.LogGroupName, serviceName)
		if cwErr != nil {
			log = logger.Initialize(cfg.Env)
			log.Warn("CloudWatch Logs init failed, logging to console only", zap.Error(cwErr))
		} else {
			log = logger.InitializeWithWriter(cfg.Env, cwClient)
		}
	} else {
		log = logger.Initialize(cfg.Env)
	}
	defer func() { _ = log.Sync() }()
	if !awsCfgLoaded {
		log.Warn("AWS config unavailable; SNS, S3 and CloudWatch are disabled", zap.Error(err))
	}

	// --- Database ---
	db, err := database.ConnectPostgres(cfg.Postgres, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	store := repository.NewGormStore(db)

	// --- Sessions and cache ---
	var (
		sessions  session.Store
		menuCache cache.MenuCache = cache.NoopCache{}
		redisConn *redis.Client
	)
	if cfg.RedisURL != "" {
		redisConn, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Redis connection failed", zap.Error(err))
		}
		sessions = session.NewRedisStore(redisConn, cfg.SessionTTL)
		menuCache = cache.NewRedisMenuCache(redisConn, cache.DefaultCacheTTL, log)
	} else {
		log.Warn("REDIS_URL not set; using in-process sessions and no menu cache")
		sessions = session.NewMemoryStore()
	}

	// --- Events, uploads and metrics ---
	publisher := newPublisher(cfg, awsCfg, awsCfgLoaded, log)

	var presigner aws_pkg.UploadPresigner
	if cfg.MenuImageBucket != "" && awsCfgLoaded {
		presigner = aws_pkg.NewS3Presigner(awsCfg, cfg.MenuImageBucket, 15*time.Minute)
	}

	var metricsClient *aws_pkg.MetricsClient
	var metrics aws_pkg.MetricsRecorder
	if awsCfgLoaded && cfg.CloudWatchEnabled {
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, "Delivery", true)
		metrics = metricsClient
	}

	// --- Dependency injection ---
	tokens := services.NewTokenService(cfg.JWTSecret, services.AuthTokenTTL)
	accountService := services.NewAccountService(store, metrics, log)
	menuService := services.NewMenuService(store, menuCache, presigner, metrics, log)
	cartService := services.NewCartService(store, sessions, metrics, log)
	checkoutService := services.NewCheckoutService(store, sessions, publisher, metrics, log)
	orderService := services.NewOrderService(store, publisher, metrics, log)
	infoService := services.NewInfoService(store)

	if cfg.AdminPhone != "" && cfg.AdminPassword != "" {
		if _, err := accountService.EnsureAdmin(ctx, cfg.AdminPhone, cfg.AdminPassword); err != nil {
			log.Error("Admin bootstrap failed", zap.Error(err))
		}
	}

	// --- HTTP router ---
	controllers.RegisterValidators()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.Metrics(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.NewRateLimiter(ctx, rate.Every(time.Minute/300), 100, 5*time.Minute).Middleware())
	r.Use(middleware.RequestTimeout(30 * time.Second))
	r.Use(middleware.Session(cfg.SessionTTL, cfg.CookieSecure))
	r.Use(middleware.Authenticate(tokens, accountService))
	r.Use(middleware.RequestLogger(log))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	routes.Register(r, routes.Controllers{
		Accounts: controllers.NewAccountController(accountService, tokens, sessions, cfg.SessionTTL, cfg.CookieSecure),
		Menu:     controllers.NewMenuController(menuService, cartService),
		Orders:   controllers.NewOrderController(cartService, checkoutService, orderService),
		Admin:    controllers.NewAdminController(menuService, orderService, infoService),
		Info:     controllers.NewInfoController(infoService),
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("Delivery service started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		log.Error("Event publisher close error", zap.Error(err))
	}
	if redisConn != nil {
		if err := redisConn.Close(); err != nil {
			log.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		log.Error("Database close error", zap.Error(err))
	}
	log.Info("Delivery service stopped gracefully")
}

func newPublisher(cfg *Config, awsCfg sdkaws.Config, awsCfgLoaded bool, log *zap.Logger) events.Publisher {
	switch cfg.EventsBackend {
	case "sns":
		if !awsCfgLoaded {
			log.Warn("EVENTS_BACKEND=sns but AWS config is unavailable; events disabled")
			return events.NoopPublisher{}
		}
		return events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.OrderSNSTopicARN)
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderKafkaTopic)
	case "rabbitmq":
		pub, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.OrderExchange)
		if err != nil {
			log.Error("RabbitMQ unavailable; events disabled", zap.Error(err))
			return events.NoopPublisher{}
		}
		return pub
	default:
		return events.NoopPublisher{}
	}
}
