package main

import (
	"context"
	"log"
	"os"
	"time"

	"printforge/internal/analyzer"
	"printforge/internal/api"
	"printforge/internal/config"
	"printforge/internal/lifecycle"
	"printforge/internal/quote"
	"printforge/internal/redis"
	"printforge/internal/storage"
	"printforge/internal/store"
	"printforge/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("PRINTFORGE_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	provider := os.Getenv("PRINTFORGE_PROVIDER")
	if provider == "" {
		provider = "openai"
	}
	log.Printf("analysis provider: %s", provider)

	analyzeTimeout := time.Duration(cfg.BasicConfig.AnalyzeTimeout) * time.Second
	analysisService, err := analyzer.New(context.Background(), provider, cfg, analyzeTimeout)
	if err != nil {
		log.Fatalf("init analyzer: %v", err)
	}

	var journal store.Journal
	dbType := os.Getenv("PRINTFORGE_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	if _, ok := cfg.Databases[dbType]; ok {
		db, err := storage.Open(dbType, cfg)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		if err := storage.Migrate(db, dbType); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		journal = storage.NewOrderJournal(db)
	} else {
		log.Printf("no %s database configured, order journal disabled", dbType)
	}

	var cache *redis.Client
	if cfg.Redis.Host != "" {
		cache, err = redis.NewClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer cache.Close()
	} else {
		log.Printf("redis not configured, quote cache disabled")
	}

	dispatcher := worker.NewDispatcher(analysisService, worker.DispatcherConfig{
		MinWorkers:  cfg.BasicConfig.MinWorkers,
		MaxWorkers:  cfg.BasicConfig.MaxWorkers,
		QueueSize:   cfg.BasicConfig.QueueSize,
		IdleTimeout: time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute,
	})
	defer dispatcher.Stop()

	cacheTTL := time.Duration(cfg.BasicConfig.QuoteCacheTTL) * time.Minute
	pipeline := quote.New(dispatcher, cache, cacheTTL)

	orders := store.New(journal)
	tracker := lifecycle.NewTracker(orders)

	handlers := api.NewHandler(pipeline, orders, tracker, cfg.BasicConfig.MaxUploadMB<<20)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
