package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ai-agent-be/internal/bootstrap"
	"ai-agent-be/internal/config"
	"ai-agent-be/internal/server"
	"ai-agent-be/internal/tracer"
	"ai-agent-be/pkg/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(ctx, cfg.Tracing, cfg.App.Environment)
	defer func() { _ = shutdownTracer(context.Background()) }()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogSQL:          cfg.Database.LogSQL,
	})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	// 4. The lexical index lives in memory; rebuild it from stored chunks
	reloadCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	n, err := container.IndexerService.Reload(reloadCtx)
	cancel()
	if err != nil {
		log.Printf("[WARN] Lexical index rebuilt partially (%d chunks): %v", n, err)
	}

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	if err := container.SubscribeKnowledge(ctx, cfg.Rag.KnowledgeTopic); err != nil {
		log.Printf("[WARN] Knowledge ingestion subscription failed: %v", err)
	}

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 7. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
