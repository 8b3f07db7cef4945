package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/rogerio-castellano/reorder-signal/docs"
	"github.com/rogerio-castellano/reorder-signal/internal/auth"
	"github.com/rogerio-castellano/reorder-signal/internal/classifier"
	"github.com/rogerio-castellano/reorder-signal/internal/config"
	"github.com/rogerio-castellano/reorder-signal/internal/db"
	api "github.com/rogerio-castellano/reorder-signal/internal/http"
	"github.com/rogerio-castellano/reorder-signal/internal/http/handlers"
	rl "github.com/rogerio-castellano/reorder-signal/internal/http/rate_limiter"
	"github.com/rogerio-castellano/reorder-signal/internal/models"
	"github.com/rogerio-castellano/reorder-signal/internal/pipeline"
	"github.com/rogerio-castellano/reorder-signal/internal/redissvc"
	"github.com/rogerio-castellano/reorder-signal/internal/repo"
	"github.com/rogerio-castellano/reorder-signal/internal/synth"
)

var ctx = context.Background()

// @title Reorder Signal API
// @version 1.0
// @description Trains a small classifier on synthetic inventory batches and serves reorder decisions.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Could not load configuration: %v", err)
	}
	auth.SetSecret(cfg.Server.JWTSecret)

	var runRepo repo.RunRepository
	var userRepo repo.UserRepository
	if cfg.Database.URL != "" {
		database, err := db.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatal("❌ Could not connect to database:", err)
		}
		defer database.Close()
		runRepo = repo.NewPostgresRunRepository(database)
		userRepo = repo.NewPostgresUserRepository(database)
	} else {
		log.Println("DATABASE_URL not set, runs are kept in memory only")
		runRepo = repo.NewInMemoryRunRepository()
		userRepo = repo.NewInMemoryUserRepository()
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Could not connect to Redis: %v", err)
		}
		defer rdb.Close()
		handlers.SetRunCache(redissvc.NewRedisService(rdb, ctx))
	}

	gen := synth.NewGenerator(time.Now().UnixNano(),
		cfg.Pipeline.LowStockProbability, cfg.Pipeline.SafetyFactor)
	runner := pipeline.NewRunner(cfg.Pipeline, gen, classifier.NewMLPTrainer())
	runner.OnStatus = func(status models.RunStatus) {
		log.Printf("pipeline status: %s", status)
	}

	handlers.SetRunner(runner)
	handlers.SetRunRepo(runRepo)
	handlers.SetUserRepo(userRepo)

	go rl.StartVisitorCleanupLoop()

	r := api.NewRouter()
	log.Println("✅ Server running on", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		log.Fatal(err)
	}
}
