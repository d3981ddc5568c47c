package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/policywatch/policywatch-backend/internal/config"
	"github.com/policywatch/policywatch-backend/internal/handler"
	"github.com/policywatch/policywatch-backend/internal/llm"
	"github.com/policywatch/policywatch-backend/internal/middleware"
	"github.com/policywatch/policywatch-backend/internal/migration"
	"github.com/policywatch/policywatch-backend/internal/queue"
	"github.com/policywatch/policywatch-backend/internal/repository"
	"github.com/policywatch/policywatch-backend/internal/routes"
	"github.com/policywatch/policywatch-backend/internal/scoring"
	"github.com/policywatch/policywatch-backend/internal/service"
	pkgcache "github.com/policywatch/policywatch-backend/pkg/cache"
	"github.com/policywatch/policywatch-backend/pkg/jwt"
	pkglogger "github.com/policywatch/policywatch-backend/pkg/logger"
	pkgredis "github.com/policywatch/policywatch-backend/pkg/redis"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.GetLogger().Info().
		Str("env", env).
		Strs("env_files", dotenvFiles).
		Msg("starting api")

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("Redis unavailable, continuing without cache and queue")
		redisClient = nil
	}

	var cacheService pkgcache.Service
	if redisClient != nil {
		cacheService = pkgcache.NewService(redisClient)
	}
	jobs := queue.New(redisClient, cfg.Worker.Queue)

	scoringCfg, err := loadScoringConfig(cfg.Scoring.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load scoring config: %v", err)
	}

	llmClient := llm.NewClient(llm.Options{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		MaxAttempts: cfg.LLM.MaxAttempts,
		PriceTable:  cfg.LLM.Prices,
	})

	jwtManager := jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	// Repositories
	docRepo := repository.NewDocumentRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	cmpRepo := repository.NewComparisonRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	// Services
	versionService := service.NewVersionService(docRepo, versionRepo, cmpRepo)
	documentService := service.NewDocumentService(docRepo, versionService, jobs, cacheService)
	analysisService := service.NewAnalysisService(versionRepo, analysisRepo, cmpRepo, llmClient, scoringCfg, service.AnalysisOptions{
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		MaxChunkChars: cfg.LLM.MaxChunkChars,
	})
	timingService := service.NewTimingService(versionRepo)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())
	if redisClient != nil {
		rlCfg := middleware.DefaultRateLimitConfig()
		rlCfg.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
		router.Use(middleware.RateLimit(redisClient, rlCfg))
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.Setup(router, routes.Handlers{
		Documents: handler.NewDocumentHandler(documentService),
		Versions:  handler.NewVersionHandler(versionService, timingService, cacheService),
		Analyses:  handler.NewAnalysisHandler(analysisService, jobs, cacheService),
		Health:    handler.NewHealthHandler(db, cacheService),
	}, jwtManager)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	pkglogger.GetLogger().Info().Str("addr", addr).Msg("listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadScoringConfig falls back to the built-in registry when no file is
// configured.
func loadScoringConfig(path string) (*scoring.Config, error) {
	if path == "" {
		return scoring.DefaultConfig(), nil
	}
	return scoring.LoadConfig(path)
}

// initDB opens the MySQL connection pool.
func initDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
