package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/controllers"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/database"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/logger"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/middleware"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"
	aws_pkg "github.com/NicolasDuarte04/Briki-Web-App-sub006/pkg/aws"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/repository"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/routes"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/services"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "plan-service"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	log := logger.Initialize(os.Getenv("APP_ENV"))

	cfg, err := LoadConfig(ctx)
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}

	// --- AWS setup ---
	awsCfg, err := aws_pkg.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	if cfg.CloudWatchLogs {
		cwLogs, err := aws_pkg.NewCloudWatchLogsWriter(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Warn("CloudWatch Logs init failed (non-fatal)", zap.Error(err))
		} else {
			log = logger.InitializeWithWriter(cfg.Env, cwLogs)
			defer cwLogs.Close()
		}
	}
	defer log.Sync()

	metricsClient := aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)
	snsClient := aws_pkg.NewSNSClient(awsCfg)

	var archiver aws_pkg.FileArchiver
	if cfg.ArchiveBucket != "" {
		archiver = aws_pkg.NewS3Archiver(aws_pkg.NewS3Client(awsCfg), cfg.ArchiveBucket, cfg.ArchivePrefix)
	} else {
		log.Warn("AWS_S3_BUCKET not set; uploads will not be archived")
	}

	// --- Database ---
	if err := database.Connect(cfg.Postgres); err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	if err := database.DB.AutoMigrate(&models.UploadBatch{}); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	// --- Redis ---
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("Failed to parse REDIS_URL, falling back to default", zap.Error(err))
		redisOpts = &redis.Options{Addr: "redis:6379", DB: 0}
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not reachable at startup", zap.Error(err))
	}

	// --- Dependency injection ---
	planRepo := repository.NewDynamoPlanAdapter(dynamodb.NewFromConfig(awsCfg), cfg.PlansTable)
	batchRepo := repository.NewGormUploadBatchRepository(database.DB)
	jobStore := repository.NewRedisJobStore(rdb)

	uploadService := services.NewPlanUploadService(services.PlanUploadDeps{
		Plans:       planRepo,
		Batches:     batchRepo,
		Cache:       repository.NewRedisPlanCache(rdb, cfg.CacheTTL),
		Archiver:    archiver,
		Publisher:   snsClient,
		SNSTopicArn: cfg.PlansTopicARN,
		Metrics:     metricsClient,
		Logger:      log,
	})
	uploadController := controllers.NewUploadController(uploadService, jobStore, controllers.Config{
		ContextTimeout: cfg.RequestTimeout,
		StorageDir:     cfg.StorageDir,
	})

	workerDone := services.StartPlanImportWorker(ctx, jobStore, uploadService)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = controllers.MaxUploadSize
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	uploadLimiter := middleware.NewRateLimiter(ctx, rate.Every(time.Minute/time.Duration(cfg.UploadRatePerMinute)), cfg.UploadBurst, 5*time.Minute)
	routes.RegisterPlanRoutes(r, uploadController, middleware.NewTokenValidator(cfg.JWTSecret), uploadLimiter)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Plan Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	stop()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn("Plan import worker did not stop in time")
	}

	if err := rdb.Close(); err != nil {
		log.Error("Redis close error", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		log.Error("Database close error", zap.Error(err))
	}

	log.Info("Plan Service stopped gracefully")
}
