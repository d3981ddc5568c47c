// The worker consumes analysis jobs from the Redis queue and runs the
// document pipeline against the database. It is safe to run more than
// one instance; job state lives in the database, not in the process.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/policywatch/policywatch-backend/internal/config"
	"github.com/policywatch/policywatch-backend/internal/llm"
	"github.com/policywatch/policywatch-backend/internal/migration"
	"github.com/policywatch/policywatch-backend/internal/queue"
	"github.com/policywatch/policywatch-backend/internal/repository"
	"github.com/policywatch/policywatch-backend/internal/scoring"
	"github.com/policywatch/policywatch-backend/internal/service"
	pkglogger "github.com/policywatch/policywatch-backend/pkg/logger"
	pkgredis "github.com/policywatch/policywatch-backend/pkg/redis"
)

func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
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
		log.Fatalf("Worker requires Redis: %v", err)
	}
	jobs := queue.New(redisClient, cfg.Worker.Queue)

	scoringCfg := scoring.DefaultConfig()
	if cfg.Scoring.ConfigPath != "" {
		scoringCfg, err = scoring.LoadConfig(cfg.Scoring.ConfigPath)
		if err != nil {
			log.Fatalf("Failed to load scoring config: %v", err)
		}
	}

	llmClient := llm.NewClient(llm.Options{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		MaxAttempts: cfg.LLM.MaxAttempts,
		PriceTable:  cfg.LLM.Prices,
	})

	versionRepo := repository.NewVersionRepository(db)
	cmpRepo := repository.NewComparisonRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	analysisService := service.NewAnalysisService(versionRepo, analysisRepo, cmpRepo, llmClient, scoringCfg, service.AnalysisOptions{
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		MaxChunkChars: cfg.LLM.MaxChunkChars,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pkglogger.GetLogger().Info().
		Int("concurrency", cfg.Worker.Concurrency).
		Str("queue", cfg.Worker.Queue).
		Msg("worker started")

	deadline := time.Duration(cfg.LLM.AnalysisDeadlineSec) * time.Second

	var wg sync.WaitGroup
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consume(ctx, jobs, analysisService, deadline)
		}()
	}
	wg.Wait()
	pkglogger.GetLogger().Info().Msg("worker stopped")
}

func consume(ctx context.Context, jobs *queue.Queue, analysis *service.AnalysisService, deadline time.Duration) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := jobs.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			pkglogger.GetLogger().Error().Err(err).Msg("dequeue failed")
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue
		}

		handle(ctx, job, analysis, deadline)

		// Opportunistically pick up comparisons whose enqueue was lost.
		analysis.SweepUnanalyzedComparisons(ctx, 5)
	}
}

// handle runs one job under a wall-clock deadline so a run cannot retry
// forever; expiry surfaces through the run's failed status.
func handle(ctx context.Context, job *queue.Job, analysis *service.AnalysisService, deadline time.Duration) {
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	log := pkglogger.GetLogger()
	switch job.Type {
	case queue.JobAnalyzeVersion:
		if _, err := analysis.Analyze(jobCtx, job.VersionID); err != nil {
			log.Error().Err(err).Uint64("version_id", job.VersionID).Msg("version analysis failed")
		}
	case queue.JobAnalyzeComparison:
		if err := analysis.AnalyzeComparison(jobCtx, job.ComparisonID); err != nil {
			log.Error().Err(err).Uint64("comparison_id", job.ComparisonID).Msg("comparison analysis failed")
		}
	default:
		log.Warn().Str("type", job.Type).Msg("unknown job type dropped")
	}
}
